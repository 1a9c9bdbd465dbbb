// config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/eaicheck/eai"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// HTTPConfig groups HTTP/HTTPS port, protocol and timeout settings.
type HTTPConfig struct {
	HTTPPort  int  `mapstructure:"http_port"`
	HTTPSPort int  `mapstructure:"https_port"`
	UseHTTPS  bool `mapstructure:"use_https"`

	// Durations are parsed separately (parseDurationFlexible).
	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// TLSConfig groups manual TLS and Let's Encrypt settings.
type TLSConfig struct {
	CertFile            string `mapstructure:"cert_file"`
	KeyFile             string `mapstructure:"key_file"`
	UseLetsEncrypt      bool   `mapstructure:"use_lets_encrypt"`
	LetsEncryptEmail    string `mapstructure:"lets_encrypt_email"`
	LetsEncryptCacheDir string `mapstructure:"lets_encrypt_cache_dir"`
	Domain              string `mapstructure:"domain"`
}

// CORSConfig groups all CORS behavior and lists.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSExposedHeaders   []string `mapstructure:"cors_exposed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// CacheConfig selects and configures the check result cache.
type CacheConfig struct {
	Backend        string        `mapstructure:"cache_backend"` // none | memory | redis
	TTL            time.Duration `mapstructure:"-"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	RedisKeyPrefix string        `mapstructure:"redis_key_prefix"`
}

// CheckerConfig holds address-checking behavior.
type CheckerConfig struct {
	AllowQuotedLocal bool `mapstructure:"allow_quoted_local"`
	RateLimitRPS     int  `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int  `mapstructure:"rate_limit_burst"`
	BatchMax         int  `mapstructure:"batch_max"`
}

// Config is the complete service configuration.
type Config struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP    HTTPConfig    `mapstructure:",squash"`
	TLS     TLSConfig     `mapstructure:",squash"`
	CORS    CORSConfig    `mapstructure:",squash"`
	Cache   CacheConfig   `mapstructure:",squash"`
	Checker CheckerConfig `mapstructure:",squash"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	EnableCompression   bool  `mapstructure:"enable_compression"`
	EnablePprof         bool  `mapstructure:"enable_pprof"`
}

// Dump returns a pretty, redacted JSON string of the config for debugging.
func (c Config) Dump() string {
	cp := c
	if cp.Cache.RedisPassword != "" {
		cp.Cache.RedisPassword = "********"
	}
	b, _ := json.MarshalIndent(cp, "", "  ")
	return string(b)
}

// Load reads configuration using the process arguments.
func Load(logger *zap.Logger) (*Config, error) {
	return LoadArgs(logger, os.Args[1:])
}

// LoadArgs merges defaults → config.* file(s) → env vars → explicit flags.
// Final precedence (highest wins): flags(explicit) > env > config > defaults.
func LoadArgs(logger *zap.Logger, args []string) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded .env file")
	}

	// 1) Flags (only *explicitly set* flags will override)
	fs := pflag.NewFlagSet("eaicheck", pflag.ContinueOnError)
	if err := registerFlags(fs); err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range Keys {
		_ = v.BindEnv(k.Name)
	}

	// 3) Optional config.* files (yaml|yml|json|toml)
	mergeConfigFiles(logger, v)

	// 4) Defaults
	setDefaults(v)

	// 5) Explicit flags
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 6) JSON-string lists → []string
	if err := normalizeListKeys(logger, v, listKeys...); err != nil {
		return nil, err
	}

	// 7) Build struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"read_timeout", 15 * time.Second, &cfg.HTTP.ReadTimeout},
		{"read_header_timeout", 10 * time.Second, &cfg.HTTP.ReadHeaderTimeout},
		{"write_timeout", 60 * time.Second, &cfg.HTTP.WriteTimeout},
		{"idle_timeout", 120 * time.Second, &cfg.HTTP.IdleTimeout},
		{"shutdown_timeout", 15 * time.Second, &cfg.HTTP.ShutdownTimeout},
		{"cache_ttl", 10 * time.Minute, &cfg.Cache.TTL},
	}
	for _, d := range durations {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", d.key), zap.Any("value", v.Get(d.key)),
				zap.Duration("default", d.def), zap.Error(err))
		}
		*d.dst = dur
	}

	// 8) Validate
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeConfigFiles(logger *zap.Logger, v *viper.Viper) {
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Info("Loaded config file", zap.String("file", file))
	}
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

func validate(cfg Config) error {
	var missing, invalid []string

	switch cfg.Env {
	case "dev", "prod":
	default:
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}

	// TLS / ACME consistency
	if cfg.TLS.UseLetsEncrypt {
		if !cfg.HTTP.UseHTTPS {
			invalid = append(invalid, "use_lets_encrypt=true requires use_https=true")
		}
		if strings.TrimSpace(cfg.TLS.CertFile) != "" || strings.TrimSpace(cfg.TLS.KeyFile) != "" {
			invalid = append(invalid, "use_lets_encrypt=true cannot be combined with cert_file/key_file")
		}
		if strings.TrimSpace(cfg.TLS.Domain) == "" {
			missing = append(missing, "EAICHECK_DOMAIN (or --domain) for Let's Encrypt")
		}
		if s := strings.TrimSpace(cfg.TLS.LetsEncryptEmail); s == "" {
			missing = append(missing, "EAICHECK_LETS_ENCRYPT_EMAIL (or --lets_encrypt_email)")
		} else if res := eai.Validate(s); !res.Valid {
			invalid = append(invalid, "lets_encrypt_email: "+res.Kind.Message())
		}
	}
	if cfg.HTTP.UseHTTPS && !cfg.TLS.UseLetsEncrypt {
		if strings.TrimSpace(cfg.TLS.CertFile) == "" || strings.TrimSpace(cfg.TLS.KeyFile) == "" {
			missing = append(missing, "EAICHECK_CERT_FILE and EAICHECK_KEY_FILE (or --cert_file/--key_file) for manual TLS")
		}
	}

	// Ports
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS && cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
		invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
	}

	// CORS
	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "CORS: cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	// Cache
	switch cfg.Cache.Backend {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
			missing = append(missing, "EAICHECK_REDIS_ADDR (or --redis_addr) for cache_backend=redis")
		}
	default:
		invalid = append(invalid, `cache_backend must be "none", "memory" or "redis"`)
	}

	// Checker
	if cfg.Checker.RateLimitRPS < 0 {
		invalid = append(invalid, "rate_limit_rps must be >= 0")
	}
	if cfg.Checker.RateLimitRPS > 0 && cfg.Checker.RateLimitBurst < 1 {
		invalid = append(invalid, "rate_limit_burst must be >= 1 when rate limiting is enabled")
	}
	if cfg.Checker.BatchMax < 1 {
		invalid = append(invalid, "batch_max must be >= 1")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
