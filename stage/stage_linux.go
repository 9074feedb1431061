package stage

import (
	"context"
	"io"
	"os"

	"github.com/containerd/fifo"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/lxcontainer/go-cinit/spawn"
)

// Setup creates the staging directory and the sync fifo below root.
// A fifo left over from an earlier attempt is replaced.
func Setup(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}
	path := spawn.SyncFifoPath(root)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove stale sync fifo")
	}
	return errors.Wrap(unix.Mkfifo(path, 0600), "failed to create sync fifo")
}

// AwaitReady blocks until the init process writes the container id to
// the sync fifo, or ctx expires. A payload other than id means the
// staging directory is shared with another container and is an error.
func AwaitReady(ctx context.Context, root, id string) error {
	f, err := fifo.OpenFifo(ctx, spawn.SyncFifoPath(root), unix.O_RDONLY, 0)
	if err != nil {
		return errors.Wrap(err, "failed to open sync fifo")
	}
	defer f.Close()

	// unblock the read when ctx expires
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-done:
		}
	}()

	data := make([]byte, len(id))
	if _, err := io.ReadFull(f, data); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "timed out waiting for sync fifo")
		}
		return errors.Wrap(err, "failed to read sync fifo")
	}
	if string(data) != id {
		return errors.Errorf("expected %q from sync fifo, got %q", id, string(data))
	}
	return nil
}
