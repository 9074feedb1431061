// Package spawn implements the hand-off sequence executed as the first
// process inside a newly created container. The runtime stages the
// container command line and environment to files before entering the
// namespace; this package recovers both, signals readiness over the
// sync fifo and replaces the process image with the container process.
package spawn

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultRoot is the staging directory inside the container rootfs.
const DefaultRoot = "/.cinit"

// staged file names under the root prefix
const (
	syncFifoName       = "syncfifo"
	cmdlineName        = "cmdline.txt"
	environName        = "environ"
	seccompProfileName = "seccomp.yaml"
)

const (
	// maxArgs bounds the number of cmdline entries, see execve(2)
	// 'Limits on size of arguments and environment'.
	maxArgs = 255

	// maxRecordSize bounds a single cmdline line or environ record.
	// There is no kernel limit per environment variable; 1MiB keeps a
	// corrupt or malicious staging file from growing the buffer
	// unbounded.
	maxRecordSize = 1 << 20
)

// SyncFifoPath returns the path of the sync fifo below root.
func SyncFifoPath(root string) string {
	return filepath.Join(root, syncFifoName)
}

// CmdlinePath returns the path of the staged command line below root.
func CmdlinePath(root string) string {
	return filepath.Join(root, cmdlineName)
}

// EnvironPath returns the path of the staged environment below root.
func EnvironPath(root string) string {
	return filepath.Join(root, environName)
}

// SeccompProfilePath returns the path of the optional staged seccomp
// profile below root.
func SeccompProfilePath(root string) string {
	return filepath.Join(root, seccompProfileName)
}

// Spawner runs the hand-off sequence. The zero value uses DefaultRoot
// and a disabled logger.
type Spawner struct {
	// Root is the staging directory, DefaultRoot if empty.
	Root string

	// Log receives step level diagnostics. Failures of the sequence
	// itself are returned, not logged.
	Log zerolog.Logger
}

func (s *Spawner) root() string {
	if s.Root == "" {
		return DefaultRoot
	}
	return s.Root
}
