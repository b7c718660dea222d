// Package registry holds the mapping from environment name to database
// connection parameters, loaded once from a YAML source.
package registry

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pdcr/pkg/errors"
)

// EnvironmentConfig describes one named target database. Immutable once loaded.
type EnvironmentConfig struct {
	Name     string `yaml:"-"`
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// Optional connection parameters
	LogMech string `yaml:"logmech"`
	TMode   string `yaml:"tmode"`
	Charset string `yaml:"charset"`
}

func (c EnvironmentConfig) missingFields() []string {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	return missing
}

// Registry is a read-only name -> EnvironmentConfig mapping. Construct a new
// one to pick up configuration changes; there are no mutation methods.
type Registry struct {
	names   []string
	configs map[string]EnvironmentConfig
}

// Load reads and parses the environment file at path
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfig, "environment file %s: %v", path, err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "environment file %s", path)
	}
	return reg, nil
}

// Parse decodes YAML of the form {env_name: {host, username, password,
// database, logmech?, tmode?, charset?}}. Entry order is preserved; a
// duplicate name overwrites the earlier entry (last write wins).
func Parse(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrConfig, "parsing environment YAML: %v", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.Wrap(errors.ErrConfig, "environment source is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrap(errors.ErrConfig, "environment source is not a mapping of environments")
	}

	reg := &Registry{configs: make(map[string]EnvironmentConfig)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		name := keyNode.Value

		if valNode.Kind != yaml.MappingNode {
			return nil, errors.Wrapf(errors.ErrConfig, "environment %q is not a mapping", name)
		}

		var cfg EnvironmentConfig
		if err := valNode.Decode(&cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrConfig, "environment %q: %v", name, err)
		}
		cfg.Name = name

		if missing := cfg.missingFields(); len(missing) > 0 {
			return nil, errors.Wrapf(errors.ErrConfig,
				"environment %q missing required parameters: %s", name, strings.Join(missing, ", "))
		}

		if _, seen := reg.configs[name]; !seen {
			reg.names = append(reg.names, name)
		}
		reg.configs[name] = cfg
	}

	return reg, nil
}

// Get returns the configuration for name. Unknown names fail with a message
// listing every configured environment.
func (r *Registry) Get(name string) (EnvironmentConfig, error) {
	cfg, ok := r.configs[name]
	if !ok {
		return EnvironmentConfig{}, errors.Wrapf(errors.ErrConfig,
			"environment %q not found, available: [%s]", name, strings.Join(r.names, ", "))
	}
	return cfg, nil
}

// Names returns all configured environment names in load order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of configured environments
func (r *Registry) Len() int {
	return len(r.names)
}
