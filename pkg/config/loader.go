package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/changepack/pkg/errors"
)

// EnvPrefix is the prefix of environment variable overrides,
// e.g. CHANGEPACK_BACKEND_TOKEN sets backend.token
const EnvPrefix = "CHANGEPACK_"

// RootConfigFiles are looked up, in order, in the workspace root
var RootConfigFiles = []string{".changepack.toml", "changepack.toml"}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// Root is the workspace root searched for a root config file
	Root string
	// UserConfigPath overrides the user config location. Empty uses
	// $XDG_CONFIG_HOME/changepack/config.toml
	UserConfigPath string
	// ConfigFile is an explicit config file loaded after the root config
	ConfigFile string
	// Overrides are flat dotted keys (e.g. "packaging.exclude") applied last
	Overrides map[string]interface{}
}

// DefaultUserConfigPath returns the per-user config file location
func DefaultUserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "changepack", "config.toml")
}

// Default returns the configuration built from the embedded defaults only
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}
	return unmarshal(k)
}

// Load merges defaults, user config, root config, env vars and overrides
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config
	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath = DefaultUserConfigPath()
	}
	if err := loadFileIfExists(k, userPath); err != nil {
		return nil, err
	}

	// 3. Root config, first match wins
	if opts.Root != "" {
		for _, filename := range RootConfigFiles {
			path := filepath.Join(opts.Root, filename)
			if _, err := os.Stat(path); err == nil {
				if err := loadFile(k, path); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	// 4. Explicit config file
	if opts.ConfigFile != "" {
		if err := loadFile(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	// 5. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 6. Command line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	return unmarshal(k)
}

// envKey turns CHANGEPACK_PACKAGING_POINTER_SUFFIX into packaging.pointer_suffix.
// Only the first underscore separates the section from the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to stat config %s", path)
	}
	return loadFile(k, path)
}

func loadFile(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
			WithDetail("path", path)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	postProcess(&cfg)
	return &cfg, nil
}

// postProcess trims list values coming from comma separated flags and env vars
func postProcess(cfg *Config) {
	cfg.Packaging.Exclude = cleanList(cfg.Packaging.Exclude)
	cfg.Packaging.ExcludeGlobs = cleanList(cfg.Packaging.ExcludeGlobs)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// String renders a short description used in debug logs
func (c *Config) String() string {
	return fmt.Sprintf("backend=%s root=%q mappings=%d exclude=%v",
		c.Backend.Kind, c.Workspace.Root, len(c.Workspace.Mappings), c.Packaging.Exclude)
}
