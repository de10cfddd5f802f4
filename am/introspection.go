package am

import (
	"os"
	"sort"
	"sync"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/harvest/am.toml
	SourceUser        ConfigSource = "user"        // ~/.harvest/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found upward from the working directory
	SourceFlag        ConfigSource = "flag"        // --config
	SourceEnvironment ConfigSource = "environment" // HARVEST_* and legacy variables, .env included
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource // The type of config source (default, system, user, etc.)
	Path   string       // File path or environment variable name
}

// ConfigSources records, per flattened key, the last file that set it.
// It is rebuilt on every load.
var (
	ConfigSources   = make(map[string]SourceInfo)
	configSourcesMu sync.Mutex
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

func trackSources(settings map[string]interface{}, prefix string, file SourceInfo) {
	configSourcesMu.Lock()
	defer configSourcesMu.Unlock()
	trackSourcesLocked(settings, prefix, file)
}

func trackSourcesLocked(settings map[string]interface{}, prefix string, file SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			trackSourcesLocked(nested, fullKey, file)
			continue
		}
		ConfigSources[fullKey] = file
	}
}

// Introspect returns every effective setting with the source it came from,
// sorted by key. Secrets are redacted.
func Introspect() ([]SettingInfo, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}

	keys := v.AllKeys()
	sort.Strings(keys)

	configSourcesMu.Lock()
	defer configSourcesMu.Unlock()

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := ConfigSources[key]; ok {
			info = si
		}
		if name, ok := envSource(key); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: name}
		}

		value := v.Get(key)
		if isSecret(key) {
			value = redact(v.GetString(key))
		}
		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings, nil
}

// envSource reports which environment variable, if any, overrides key
func envSource(key string) (string, bool) {
	if name := envName(key); os.Getenv(name) != "" {
		return name, true
	}
	if legacy, ok := legacyEnv[key]; ok && os.Getenv(legacy) != "" {
		return legacy, true
	}
	return "", false
}
