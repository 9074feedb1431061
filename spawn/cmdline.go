package spawn

import (
	"os"

	"github.com/pkg/errors"

	"github.com/lxcontainer/go-cinit/pkg/records"
)

// ErrNoArguments indicates an empty staged command line. Exec needs at
// least the executable path, so this is fatal.
var ErrNoArguments = errors.New("cmdline file contains no arguments")

// ErrTooManyArguments indicates the staged command line exceeds maxArgs
// entries.
var ErrTooManyArguments = errors.New("cmdline file contains too many arguments")

// loadCmdline reads the staged command line, one argument per line with
// the trailing newline stripped.
func (s *Spawner) loadCmdline() ([]string, error) {
	f, err := os.Open(CmdlinePath(s.root()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cmdline file")
	}
	defer f.Close()

	var args []string
	sc := records.New(f, '\n', maxRecordSize)
	for sc.Scan() {
		if len(args) == maxArgs {
			return nil, ErrTooManyArguments
		}
		args = append(args, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read cmdline file")
	}
	if len(args) == 0 {
		return nil, ErrNoArguments
	}
	return args, nil
}
