package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLSCORE"

// Sentinel errors returned (wrapped) by Load.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigParseError   = errors.New("config parse error")
	ErrConfigValidation   = errors.New("config validation failed")
)

// defaultSearchPaths are probed for "config.yaml" when no explicit path is
// given.
var defaultSearchPaths = []string{".", "./configs", "/etc/molscore"}

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// LoadOption customises a Load call.
type LoadOption func(*loadOptions)

type loadOptions struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
}

// WithConfigPath loads exactly the given file.  A missing file is an error.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths replaces the directories probed for config.yaml.
func WithSearchPaths(paths ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = paths }
}

// WithOverrides sets dotted keys with the highest precedence, above both the
// file and the environment.  The CLI uses it for flag values.
func WithOverrides(overrides map[string]interface{}) LoadOption {
	return func(o *loadOptions) { o.overrides = overrides }
}

// newViper builds a Viper instance with YAML file type, the MOLSCORE_ env
// prefix, automatic env binding and a "." → "_" key replacer so that
// "engine.timeout" resolves to MOLSCORE_ENGINE_TIMEOUT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v)
	return v
}

// Load reads configuration with precedence overrides > env > file > defaults,
// validates it and stores it as the process-wide config returned by Get.
//
// Without WithConfigPath the search paths are probed for config.yaml and a
// missing file is not an error.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{searchPaths: defaultSearchPaths}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.configPath != "" {
		if _, err := os.Stat(o.configPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.configPath)
		}
		v.SetConfigFile(o.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.configPath, err)
		}
	} else {
		v.SetConfigName("config")
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
			}
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

// LoadFromFile is shorthand for Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config from MOLSCORE_* environment variables and
// defaults only, with no config file.  This is the strategy used in
// containers.
//
//	MOLSCORE_<SECTION>_<FIELD>   e.g.  MOLSCORE_ENGINE_COMMAND, MOLSCORE_CACHE_ENABLED
func LoadFromEnv() (*Config, error) {
	cfg, err := unmarshalAndFinalize(newViper())
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch monitors configPath and calls onChange with the re-parsed Config on
// every write.  An edit that fails to parse or validate is reported to
// onError (when non-nil) and onChange is not called, so a broken file never
// replaces a running configuration.
//
// Watch is non-blocking; viper runs the fsnotify loop in the background.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParseError, configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		setGlobal(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.  For main() only.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

// Get returns the most recently loaded Config, or nil before the first Load.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

//Personal.AI order the ending
