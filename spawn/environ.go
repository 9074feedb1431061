package spawn

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lxcontainer/go-cinit/pkg/records"
)

// ErrMalformedRecord indicates an environment record without a key and
// '=' marker, e.g. "foo" or "=bar".
var ErrMalformedRecord = errors.New("environment record is not of the form key=value")

// loadEnviron reads the staged environment, a stream of NUL terminated
// key=value records, and installs every pair into the process
// environment. An empty file is legal; a malformed or oversized record
// is fatal and leaves no guarantee about previously installed pairs.
func (s *Spawner) loadEnviron() error {
	f, err := os.Open(EnvironPath(s.root()))
	if err != nil {
		return errors.Wrap(err, "failed to open environment file")
	}
	defer f.Close()
	return installEnviron(f)
}

func installEnviron(r io.Reader) error {
	sc := records.New(r, 0x00, maxRecordSize)
	for sc.Scan() {
		rec := sc.Bytes()
		// split at the first '=' so values containing '=' stay intact
		i := bytes.IndexByte(rec, '=')
		if i <= 0 {
			return errors.Wrapf(ErrMalformedRecord, "%q", rec)
		}
		if err := setEnv(string(rec[:i]), string(rec[i+1:])); err != nil {
			return errors.Wrapf(err, "failed to set environment variable %q", rec[:i])
		}
	}
	return errors.Wrap(sc.Err(), "failed to read environment file")
}

// setEnv installs a single variable, overwriting an existing one of the
// same name. It is the only place the ambient process state is mutated
// before exec: the environment must be ambient for the new process
// image to inherit it.
func setEnv(key, value string) error {
	return os.Setenv(key, value)
}
