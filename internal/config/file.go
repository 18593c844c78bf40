package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable pointing at a defaults file.
const EnvConfig = "NEEDLE_CONFIG"

// Defaults is a parsed defaults file: long flag names mapped to the values
// they take unless given on the command line. Lists give a flag several
// times.
type Defaults map[string][]string

// Keys returns the flag names in sorted order.
func (d Defaults) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindFile locates the defaults file: explicit, then $NEEDLE_CONFIG, then
// needle/config.yaml under the user config directory. It returns "" when
// there is none; an explicit path that does not exist is an error.
func FindFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("config: $%s: %w", EnvConfig, err)
		}
		return env, nil
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		dir = filepath.Join(home, ".config")
	}
	path := filepath.Join(dir, "needle", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: %w", err)
	}
	return path, nil
}

// LoadFile reads a YAML defaults file. The document must be a mapping
// whose values are scalars or lists of scalars.
func LoadFile(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return ParseDefaults(data, path)
}

// ParseDefaults parses the contents of a defaults file; name is used in
// error messages.
func ParseDefaults(data []byte, name string) (Defaults, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", name, err)
	}
	d := Defaults{}
	if len(doc.Content) == 0 {
		return d, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config: %s: top level must be a mapping", name)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			d[key.Value] = []string{val.Value}
		case yaml.SequenceNode:
			vals := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("config: %s:%d: %q must list plain values", name, item.Line, key.Value)
				}
				vals = append(vals, item.Value)
			}
			d[key.Value] = vals
		default:
			return nil, fmt.Errorf("config: %s:%d: unsupported value for %q", name, val.Line, key.Value)
		}
	}
	return d, nil
}
