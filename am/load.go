package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/dtsgen/errors"
)

// EnvPrefix prefixes environment overrides, e.g. DTSGEN_PROJECT_DIST
const EnvPrefix = "DTSGEN"

// Load reads the configuration. An explicit configPath must exist;
// otherwise dtsgen.toml is searched upward from the working directory.
// Without a file only defaults and environment overrides apply.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
		configPath = findProjectConfig(wd)
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "config file %s", configPath),
			"run `dtsgen init` to create one",
		)
	}

	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if cfg.File, err = filepath.Abs(configPath); err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", configPath)
		}
	}
	return cfg, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// newViper initializes Viper with defaults and environment binding
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	return v
}

// findProjectConfig searches for dtsgen.toml by walking up from dir.
// Returns "" when none is found.
func findProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
