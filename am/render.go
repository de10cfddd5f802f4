package am

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/harvest/errors"
)

var secretKeys = map[string]bool{"portal.password": true}

func isSecret(key string) bool {
	return secretKeys[key]
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}

// Effective returns the merged settings as a nested map, secrets redacted
func Effective() (map[string]interface{}, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}
	settings := v.AllSettings()
	for key := range secretKeys {
		redactPath(settings, strings.Split(key, "."), v.GetString(key))
	}
	return settings, nil
}

func redactPath(m map[string]interface{}, path []string, value string) {
	if len(path) == 1 {
		if _, ok := m[path[0]]; ok {
			m[path[0]] = redact(value)
		}
		return
	}
	if nested, ok := m[path[0]].(map[string]interface{}); ok {
		redactPath(nested, path[1:], value)
	}
}

// Render encodes settings as toml, json or yaml
func Render(settings map[string]interface{}, format string) ([]byte, error) {
	switch format {
	case "", "toml":
		data, err := toml.Marshal(settings)
		return data, errors.Wrap(err, "failed to encode config as toml")
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(settings); err != nil {
			return nil, errors.Wrap(err, "failed to encode config as json")
		}
		return buf.Bytes(), nil
	case "yaml":
		data, err := yaml.Marshal(settings)
		return data, errors.Wrap(err, "failed to encode config as yaml")
	default:
		return nil, errors.WithHint(errors.Newf("unknown format %q", format), "use toml, json or yaml")
	}
}
