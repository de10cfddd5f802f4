package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/teranos/harvest/errors"
)

// EnvPrefix prefixes every environment override, e.g. HARVEST_RUN_QUANTITY.
const EnvPrefix = "HARVEST"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
	explicitFile  string
	dotEnvFile    = ".env"
)

// SetConfigFile makes path the highest-precedence config file (--config).
// It resets any cached configuration.
func SetConfigFile(path string) {
	mu.Lock()
	explicitFile = path
	mu.Unlock()
	Reset()
}

// Load reads the harvest configuration using Viper
func Load() (*Config, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}
	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	mu.Lock()
	defer mu.Unlock()
	if viperInstance != nil {
		return viperInstance, nil
	}
	v, err := initViper(explicitFile)
	if err != nil {
		return nil, err
	}
	viperInstance = v
	return v, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, on top of the
// defaults only
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil

	configSourcesMu.Lock()
	ConfigSources = make(map[string]SourceInfo)
	configSourcesMu.Unlock()
}

// initViper initializes Viper with configuration sources and defaults
func initViper(explicit string) (*viper.Viper, error) {
	v := viper.New()

	// .env only fills variables the environment does not already set
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)

	SetDefaults(v)

	if err := mergeConfigFiles(v, explicit); err != nil {
		return nil, err
	}
	return v, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return errors.WithHint(errors.Wrapf(err, "failed to parse %s", path),
			"each line must look like KEY=value")
	}
	return nil
}

// envName returns the HARVEST_* variable for a config key
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// findProjectConfig searches for am.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, DefaultConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// UserConfigPath returns ~/.harvest/am.toml, or "" without a home directory
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".harvest", DefaultConfigName)
}

// configFiles lists candidate files in precedence order, lowest first
func configFiles(explicit string) []SourceInfo {
	files := []SourceInfo{{Source: SourceSystem, Path: "/etc/harvest/" + DefaultConfigName}}
	if user := UserConfigPath(); user != "" {
		files = append(files, SourceInfo{Source: SourceUser, Path: user})
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, SourceInfo{Source: SourceProject, Path: project})
	}
	if explicit != "" {
		files = append(files, SourceInfo{Source: SourceFlag, Path: explicit})
	}
	return files
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): defaults < system < user < project < --config < env vars.
// MergeConfigMap keeps env vars above every file.
func mergeConfigFiles(v *viper.Viper, explicit string) error {
	for _, file := range configFiles(explicit) {
		if _, err := os.Stat(file.Path); err != nil {
			if file.Source == SourceFlag {
				return errors.WithHint(errors.Wrapf(errors.ErrNotFound, "config file %s", file.Path),
					"check the --config path")
			}
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(file.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", file.Path)
		}

		settings := tempViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", file.Path)
		}
		trackSources(settings, "", file)
	}
	return nil
}
