package config

import (
	"io"

	"github.com/google/safeopen"
	"gopkg.in/yaml.v3"

	"github.com/xgenio/xgen/lib/infra"
)

type AuthorityBackend string

const (
	BackendSQL   AuthorityBackend = "sql"
	BackendRedis AuthorityBackend = "redis"
	BackendEtcd  AuthorityBackend = "etcd"
)

type ConfigErr string

const (
	ErrUnknownBackend    ConfigErr = "unknown authority backend"
	ErrNoSequences       ConfigErr = "no sequences configured"
	ErrBadSequenceSpec   ConfigErr = "bad sequence spec"
	ErrDuplicateSequence ConfigErr = "duplicate sequence name"
)

func (err ConfigErr) Error() string {
	return string(err)
}

// SequenceSpec configures one named sequence of the block allocator.
type SequenceSpec struct {
	Name         string `yaml:"name"`
	BlockSize    int64  `yaml:"blockSize"`
	InitialValue int64  `yaml:"initialValue"`
}

// Config is the generator subsystem settings document.
type Config struct {
	Backend   AuthorityBackend `yaml:"backend"`
	KeyPrefix string           `yaml:"keyPrefix"`
	Sequences []SequenceSpec   `yaml:"sequences"`
}

func (cfg *Config) Validate() error {
	switch cfg.Backend {
	case BackendSQL, BackendRedis, BackendEtcd:
	default:
		return infra.WrapErrorStackWithMessage(ErrUnknownBackend, string(cfg.Backend))
	}
	if len(cfg.Sequences) < 1 {
		return infra.WrapErrorStack(ErrNoSequences)
	}
	names := make(map[string]struct{}, len(cfg.Sequences))
	for _, spec := range cfg.Sequences {
		if len(spec.Name) <= 0 || spec.BlockSize <= 0 {
			return infra.WrapErrorStackWithMessage(ErrBadSequenceSpec, spec.Name)
		}
		if _, ok := names[spec.Name]; ok {
			return infra.WrapErrorStackWithMessage(ErrDuplicateSequence, spec.Name)
		}
		names[spec.Name] = struct{}{}
	}
	return nil
}

// Sequence looks up a spec by name.
func (cfg *Config) Sequence(name string) (SequenceSpec, bool) {
	for _, spec := range cfg.Sequences {
		if spec.Name == name {
			return spec, true
		}
	}
	return SequenceSpec{}, false
}

// Load reads and validates the settings file under dir. The open is
// rooted beneath dir so a crafted filename cannot escape it.
func Load(dir, filename string) (*Config, error) {
	f, err := safeopen.OpenBeneath(dir, filename)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "open generator config")
	}
	defer func() { _ = f.Close() }()
	return decode(f)
}

func decode(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "read generator config")
	}
	cfg := &Config{}
	if err = yaml.Unmarshal(raw, cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "unmarshal generator config")
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
