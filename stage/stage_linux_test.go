package stage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lxcontainer/go-cinit/spawn"
)

const (
	helperRootEnv = "CINIT_TEST_HELPER_ROOT"
	helperIDEnv   = "CINIT_TEST_HELPER_ID"
)

// TestMain doubles as the container init when re-executed by the
// end-to-end tests: with the helper variables set, the test binary
// runs the hand-off sequence instead of the test suite.
func TestMain(m *testing.M) {
	if root := os.Getenv(helperRootEnv); root != "" {
		s := &spawn.Spawner{Root: root, Log: zerolog.Nop()}
		err := s.Run(context.Background(), os.Getenv(helperIDEnv))
		// Run only returns on failure
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func startInit(t *testing.T, root, id string) (*exec.Cmd, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=none")
	cmd.Env = append(os.Environ(), helperRootEnv+"="+root, helperIDEnv+"="+id)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start init helper: %v", err)
	}
	return cmd, &stdout, &stderr
}

func TestSetup(t *testing.T) {
	root := t.TempDir() + "/staging"
	if err := Setup(root); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	fi, err := os.Stat(spawn.SyncFifoPath(root))
	if err != nil {
		t.Fatalf("stat fifo: %v", err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("fifo mode = %v, want named pipe", fi.Mode())
	}
	// stale fifo from an earlier attempt is replaced
	if err := Setup(root); err != nil {
		t.Errorf("second Setup error: %v", err)
	}
}

func TestAwaitReady_Timeout(t *testing.T) {
	root := t.TempDir()
	if err := Setup(root); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := AwaitReady(ctx, root, "cid"); err == nil {
		t.Error("AwaitReady returned without a writer attached")
	}
}

func TestHandOff(t *testing.T) {
	root := t.TempDir()
	const id = "e2e-container"

	if err := Setup(root); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	err := WriteCmdline(root, []string{"/bin/sh", "-c", `echo "$CINIT_E2E_GREETING"`})
	if err != nil {
		t.Fatalf("WriteCmdline error: %v", err)
	}
	if err := WriteEnviron(root, []string{"CINIT_E2E_GREETING=hello-from-environ"}); err != nil {
		t.Fatalf("WriteEnviron error: %v", err)
	}

	cmd, stdout, stderr := startInit(t, root, id)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := AwaitReady(ctx, root, id); err != nil {
		t.Fatalf("AwaitReady error: %v (stderr: %s)", err, stderr)
	}

	if err := cmd.Wait(); err != nil {
		t.Fatalf("init helper failed: %v (stderr: %s)", err, stderr)
	}
	if got := stdout.String(); got != "hello-from-environ\n" {
		t.Errorf("container output = %q, want hello-from-environ", got)
	}
}

func TestHandOff_MismatchedIdentity(t *testing.T) {
	root := t.TempDir()

	if err := Setup(root); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if err := WriteCmdline(root, []string{"/bin/true"}); err != nil {
		t.Fatalf("WriteCmdline error: %v", err)
	}
	if err := WriteEnviron(root, nil); err != nil {
		t.Fatalf("WriteEnviron error: %v", err)
	}

	cmd, _, _ := startInit(t, root, "other-cid")
	defer cmd.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := AwaitReady(ctx, root, "expected-cid")
	if err == nil || !strings.Contains(err.Error(), "sync fifo") {
		t.Errorf("AwaitReady error = %v, want payload mismatch", err)
	}
}

func TestHandOff_ExecFailureExitsNonZero(t *testing.T) {
	root := t.TempDir()
	const id = "e2e-exec-fail"

	if err := Setup(root); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if err := WriteCmdline(root, []string{"/nonexistent/binary"}); err != nil {
		t.Fatalf("WriteCmdline error: %v", err)
	}
	if err := WriteEnviron(root, nil); err != nil {
		t.Fatalf("WriteEnviron error: %v", err)
	}

	cmd, _, stderr := startInit(t, root, id)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := AwaitReady(ctx, root, id); err != nil {
		t.Fatalf("AwaitReady error: %v (stderr: %s)", err, stderr)
	}

	err := cmd.Wait()
	ee, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("init helper error = %v, want non-zero exit", err)
	}
	if code := ee.ExitCode(); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "exec") {
		t.Errorf("stderr = %q, want exec failure diagnostic", stderr.String())
	}
}
