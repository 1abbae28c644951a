package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/meibo/pkg/errors"
)

// Config is the on-disk configuration file. Top-level keys seed Options;
// the cache and server tables configure the CLI and the HTTP service.
//
//	school_name = "市立第一中学校"
//	fiscal_year = 2024
//	dpi = 200
//
//	[fonts]
//	"ＭＳ 明朝" = "/usr/share/fonts/ipaex/ipaexm.ttf"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
type Config struct {
	Options

	Templates string       `toml:"templates"` // layout directory
	Cache     CacheConfig  `toml:"cache"`
	Server    ServerConfig `toml:"server"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // "file" (default), "redis" or "none"
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig configures `meibo serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// LoadConfig reads a TOML config file. A missing file yields a
// FILE_NOT_FOUND error; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	}
	return ParseConfig(string(data))
}

// ParseConfig decodes TOML config text.
func ParseConfig(text string) (Config, error) {
	var cfg Config
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	switch cfg.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return cfg, errors.New(errors.ErrCodeInvalidInput, "invalid cache backend: %q (must be file, redis or none)", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisURL == "" {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	}
	return cfg, nil
}
