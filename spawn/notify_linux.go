package spawn

import (
	"context"

	"github.com/containerd/fifo"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// notify writes the container id to the sync fifo. Opening the fifo for
// write blocks until the runtime attaches its read end, so returning
// without error guarantees the runtime has reached its wait point
// before this process proceeds to exec.
func (s *Spawner) notify(ctx context.Context, id string) error {
	f, err := fifo.OpenFifo(ctx, SyncFifoPath(s.root()), unix.O_WRONLY, 0)
	if err != nil {
		return errors.Wrap(err, "failed to open sync fifo")
	}
	if _, err := f.Write([]byte(id)); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to write sync fifo")
	}
	return errors.Wrap(f.Close(), "failed to close sync fifo")
}
