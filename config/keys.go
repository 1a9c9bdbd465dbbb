// config/keys.go
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Key defines one configuration key. The same name is used for the config
// file, the CLI flag and (uppercased, prefixed with EAICHECK_) the env var.
type Key struct {
	Name string

	// Default is the lowest-precedence value.
	// Supported types: string, int, int64, bool, []string.
	Default any

	// Desc is a short description for --help output.
	Desc string
}

// EnvPrefix is prepended to every env var, e.g. EAICHECK_HTTP_PORT.
const EnvPrefix = "EAICHECK"

// Keys lists every key the service understands.
var Keys = []Key{
	// runtime
	{"env", "dev", `Runtime environment "dev"|"prod"`},
	{"log_level", "debug", "Log level"},

	// http
	{"http_port", 8080, "HTTP port"},
	{"https_port", 443, "HTTPS port"},
	{"use_https", false, "Serve HTTPS"},
	{"read_timeout", "15s", "HTTP server read timeout"},
	{"read_header_timeout", "10s", "HTTP server read header timeout"},
	{"write_timeout", "60s", "HTTP server write timeout"},
	{"idle_timeout", "120s", "HTTP server idle timeout"},
	{"shutdown_timeout", "15s", "Graceful shutdown timeout"},

	// tls
	{"use_lets_encrypt", false, "Use Let's Encrypt (http-01)"},
	{"lets_encrypt_email", "", "ACME account e-mail"},
	{"lets_encrypt_cache_dir", "letsencrypt-cache", "ACME cache dir"},
	{"cert_file", "", "TLS cert file (manual TLS)"},
	{"key_file", "", "TLS key file  (manual TLS)"},
	{"domain", "", "Domain for TLS or ACME"},

	// cors (lists accept JSON array strings)
	{"enable_cors", false, "Enable CORS"},
	{"cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`},
	{"cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`},
	{"cors_allowed_headers", "", `JSON array of headers, e.g. '["Accept","Content-Type"]'`},
	{"cors_exposed_headers", "", `JSON array of headers, e.g. '["Link"]'`},
	{"cors_allow_credentials", false, "CORS: allow credentials"},
	{"cors_max_age", 0, "CORS: max age seconds (0 disables cache)"},

	// http behavior
	{"enable_compression", true, "Enable HTTP compression"},
	{"enable_pprof", false, "Serve /debug/pprof to loopback clients"},
	{"max_request_body_bytes", int64(64 << 10), "Max HTTP request body size in bytes (0 = unlimited)"},

	// result cache
	{"cache_backend", "memory", `Result cache: "none"|"memory"|"redis"`},
	{"cache_ttl", "10m", "How long cached check results live"},
	{"redis_addr", "", "Redis address for cache_backend=redis"},
	{"redis_password", "", "Redis password"},
	{"redis_db", 0, "Redis database number"},
	{"redis_key_prefix", "eaicheck:", "Prefix for Redis cache keys"},

	// checker
	{"allow_quoted_local", false, `Accept a "quoted" local part`},
	{"rate_limit_rps", 10, "API requests per second per client IP (0 disables)"},
	{"rate_limit_burst", 20, "API burst size per client IP"},
	{"batch_max", 100, "Max addresses per batch API request"},
}

// listKeys hold []string values that may arrive as JSON array strings.
var listKeys = []string{
	"cors_allowed_origins",
	"cors_allowed_methods",
	"cors_allowed_headers",
	"cors_exposed_headers",
}

// registerFlags defines one flag per key on fs.
func registerFlags(fs *pflag.FlagSet) error {
	for _, k := range Keys {
		switch d := k.Default.(type) {
		case string:
			fs.String(k.Name, d, k.Desc)
		case int:
			fs.Int(k.Name, d, k.Desc)
		case int64:
			fs.Int64(k.Name, d, k.Desc)
		case bool:
			fs.Bool(k.Name, d, k.Desc)
		case []string:
			fs.StringSlice(k.Name, d, k.Desc)
		default:
			return fmt.Errorf("config key %q: unsupported default type %T", k.Name, k.Default)
		}
	}
	return nil
}

// setDefaults applies key defaults as the lowest precedence layer.
func setDefaults(v *viper.Viper) {
	for _, k := range Keys {
		v.SetDefault(k.Name, k.Default)
	}
}
