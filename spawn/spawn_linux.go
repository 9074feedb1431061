package spawn

import (
	"context"
)

// Run executes the hand-off sequence for the given container id:
// load the staged command line and environment, set the process name,
// signal readiness over the sync fifo, install the optional seccomp
// filter and exec the container process.
//
// On success Run does not return: the process image is replaced. Every
// returned error is fatal to the hand-off; the caller reports it and
// exits non-zero. There are no retries, the sequence runs exactly once.
func (s *Spawner) Run(ctx context.Context, id string) error {
	args, err := s.loadCmdline()
	if err != nil {
		return err
	}
	s.Log.Debug().Strs("args", args).Msg("loaded cmdline")

	if err := s.loadEnviron(); err != nil {
		return err
	}

	// Name failures are diagnostic only: exec resets the name anyway.
	if err := setProcessName(id); err != nil {
		s.Log.Warn().Err(err).Msg("failed to set process name")
	}

	if err := s.notify(ctx, id); err != nil {
		return err
	}
	s.Log.Debug().Str("fifo", SyncFifoPath(s.root())).Msg("runtime rendezvous complete")

	if err := s.applySeccomp(); err != nil {
		return err
	}

	return s.exec(args)
}
