package deploy

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is an immutable tree of settings parsed from YAML text.
type Config struct {
	root map[string]interface{}
}

// EmptyConfig has no keys.
var EmptyConfig = Config{}

// ParseConfig parses YAML text. Blank text gives EmptyConfig.
func ParseConfig(text string) (Config, error) {
	if strings.TrimSpace(text) == "" {
		return EmptyConfig, nil
	}
	var root map[string]interface{}
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return EmptyConfig, fmt.Errorf("deploy config: %w", err)
	}
	return Config{root: root}, nil
}

func (c Config) IsEmpty() bool {
	return len(c.root) == 0
}

// Get resolves a dotted key such as "pool.size".
func (c Config) Get(key string) (interface{}, bool) {
	var cur interface{} = c.root
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// WithFallback merges other underneath c: keys of c win, nested maps merge recursively.
func (c Config) WithFallback(other Config) Config {
	if other.IsEmpty() {
		return c
	}
	if c.IsEmpty() {
		return other
	}
	return Config{root: merge(c.root, other.root)}
}

func merge(primary, fallback map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(primary)+len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	for k, v := range primary {
		pm, pok := v.(map[string]interface{})
		fm, fok := out[k].(map[string]interface{})
		if pok && fok {
			out[k] = merge(pm, fm)
			continue
		}
		out[k] = v
	}
	return out
}

// String renders c as YAML with sorted keys, so equal configs render equally.
func (c Config) String() string {
	if c.IsEmpty() {
		return ""
	}
	out, err := yaml.Marshal(c.root)
	if err != nil {
		keys := make([]string, 0, len(c.root))
		for k := range c.root {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ",")
	}
	return string(out)
}

// Equal compares the textual forms.
func (c Config) Equal(other Config) bool {
	return c.String() == other.String()
}
