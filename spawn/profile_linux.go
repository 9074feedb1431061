package spawn

import (
	"os"

	"github.com/elastic/go-seccomp-bpf"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile is the optional staged seccomp policy. When the runtime
// stages one below the prefix it is installed immediately before exec,
// so the filter constrains the container process but not the shim.
type Profile struct {
	// NoNewPrivs defaults to true; disabling it requires CAP_SYS_ADMIN
	// in the current user namespace.
	NoNewPrivs *bool `yaml:"no_new_privs"`

	DefaultAction string        `yaml:"default_action"`
	Syscalls      []SyscallRule `yaml:"syscalls"`
}

// SyscallRule applies one action to a group of syscalls by name.
type SyscallRule struct {
	Names  []string `yaml:"names"`
	Action string   `yaml:"action"`
}

var actionNames = map[string]seccomp.Action{
	"allow":        seccomp.ActionAllow,
	"errno":        seccomp.ActionErrno,
	"trap":         seccomp.ActionTrap,
	"trace":        seccomp.ActionTrace,
	"log":          seccomp.ActionLog,
	"kill_thread":  seccomp.ActionKillThread,
	"kill_process": seccomp.ActionKillProcess,
}

func parseAction(s string) (seccomp.Action, error) {
	a, ok := actionNames[s]
	if !ok {
		return 0, errors.Errorf("unknown seccomp action %q", s)
	}
	return a, nil
}

func parseProfile(data []byte) (*Profile, error) {
	p := new(Profile)
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "failed to parse seccomp profile")
	}
	if _, err := p.filter(); err != nil {
		return nil, err
	}
	return p, nil
}

// filter converts the profile into a loadable seccomp filter.
func (p *Profile) filter() (seccomp.Filter, error) {
	def, err := parseAction(p.DefaultAction)
	if err != nil {
		return seccomp.Filter{}, err
	}
	policy := seccomp.Policy{DefaultAction: def}
	for _, r := range p.Syscalls {
		act, err := parseAction(r.Action)
		if err != nil {
			return seccomp.Filter{}, err
		}
		if len(r.Names) == 0 {
			return seccomp.Filter{}, errors.New("seccomp rule lists no syscall names")
		}
		policy.Syscalls = append(policy.Syscalls, seccomp.SyscallGroup{
			Names:  r.Names,
			Action: act,
		})
	}
	noNewPrivs := true
	if p.NoNewPrivs != nil {
		noNewPrivs = *p.NoNewPrivs
	}
	return seccomp.Filter{
		NoNewPrivs: noNewPrivs,
		Flag:       seccomp.FilterFlagTSync,
		Policy:     policy,
	}, nil
}

// applySeccomp installs the staged seccomp profile if one exists. A
// missing profile file means no filter and is not an error.
func (s *Spawner) applySeccomp() error {
	data, err := os.ReadFile(SeccompProfilePath(s.root()))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read seccomp profile")
	}
	p, err := parseProfile(data)
	if err != nil {
		return err
	}
	filter, err := p.filter()
	if err != nil {
		return err
	}
	s.Log.Debug().Int("rules", len(p.Syscalls)).Msg("loading seccomp filter")
	return errors.Wrap(seccomp.LoadFilter(filter), "failed to load seccomp filter")
}
