// Package stage implements the runtime side of the hand-off protocol:
// it prepares the staging directory consumed by the in-container init
// and waits for the readiness signal on the sync fifo.
//
// The runtime stages everything before the container namespace is
// entered, because argv and environment cannot be passed to the init
// process any other way once the engine has cleared the environment.
package stage

import (
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lxcontainer/go-cinit/spawn"
)

// WriteCmdline stages the container command line below root, one
// argument per line. Arguments must not contain newlines; the format
// has no quoting or escaping.
func WriteCmdline(root string, args []string) error {
	if len(args) == 0 {
		return errors.New("refusing to stage an empty command line")
	}
	var b strings.Builder
	for _, arg := range args {
		if strings.ContainsRune(arg, '\n') {
			return errors.Errorf("argument %q contains a newline", arg)
		}
		b.WriteString(arg)
		b.WriteByte('\n')
	}
	err := os.WriteFile(spawn.CmdlinePath(root), []byte(b.String()), 0640)
	return errors.Wrap(err, "failed to write cmdline file")
}

// WriteEnviron stages the container environment below root as a stream
// of NUL terminated key=value records. Entries must be of the form
// key=value with a non-empty key and no NUL bytes.
func WriteEnviron(root string, env []string) error {
	var b bytes.Buffer
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i <= 0 {
			return errors.Errorf("environment entry %q is not of the form key=value", kv)
		}
		if strings.IndexByte(kv, 0x00) >= 0 {
			return errors.Errorf("environment entry %q contains a NUL byte", kv)
		}
		b.WriteString(kv)
		b.WriteByte(0x00)
	}
	err := os.WriteFile(spawn.EnvironPath(root), b.Bytes(), 0640)
	return errors.Wrap(err, "failed to write environment file")
}
