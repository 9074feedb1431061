package spawn

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// errNotFound indicates the executable was not found in any search
// path directory.
var errNotFound = errors.New("executable file not found in $PATH")

// defaultPath is the search path used when the installed environment
// carries no PATH variable, matching execvp behaviour.
const defaultPath = "/usr/local/bin:/usr/bin:/bin"

func isExecutable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}
	m := d.Mode()
	return !m.IsDir() && m&0111 != 0
}

// lookPath resolves name against the PATH entries of env, following
// execvp semantics: a name containing a path separator is used as-is,
// anything else is searched in the PATH directories (or a default path
// when PATH is unset).
func lookPath(name string, env []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		return name, nil
	}
	for _, dir := range filepath.SplitList(searchPath(env)) {
		if dir == "" {
			dir = "."
		}
		if p := filepath.Join(dir, name); isExecutable(p) {
			return p, nil
		}
	}
	return "", errNotFound
}

// searchPath returns the value of the last PATH entry in env, or the
// default path if none is present.
func searchPath(env []string) string {
	const pathPrefix = "PATH="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], pathPrefix) {
			return env[i][len(pathPrefix):]
		}
	}
	return defaultPath
}

// exec replaces the current process image with the program resolved
// from args[0], passing args as the argument vector and the ambient
// environment installed by loadEnviron. On success it does not return.
func (s *Spawner) exec(args []string) error {
	env := os.Environ()
	path, err := lookPath(args[0], env)
	if err != nil {
		return errors.Wrapf(err, "failed to locate executable %q", args[0])
	}
	return errors.Wrapf(unix.Exec(path, args, env), "failed to exec %q", path)
}
