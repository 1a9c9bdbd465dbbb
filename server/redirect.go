// server/redirect.go
package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/dalemusser/eaicheck/config"
	"go.uber.org/zap"
)

// httpRedirectHandler sends every request to the HTTPS origin with the same
// host and request URI. Hosts and URIs that could inject headers are refused.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func hasControlChars(s string) bool {
	for _, c := range s {
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost accepts host or host:port where host is a DNS name or an IP
// literal (IPv6 in brackets, optionally with a zone).
func isValidHost(host string) bool {
	if host == "" || hasControlChars(host) || strings.ContainsAny(host, " /\\@?#") {
		return false
	}

	hostPart := host
	if h, port, err := net.SplitHostPort(host); err == nil {
		p, perr := strconv.Atoi(port)
		if perr != nil || p <= 0 || p > 65535 {
			return false
		}
		hostPart = h
		if strings.Contains(h, ":") {
			// SplitHostPort already stripped the brackets.
			return validIPv6(h)
		}
	} else if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") || len(host) < 3 {
			return false
		}
		return validIPv6(host[1 : len(host)-1])
	}

	return hostPart != ""
}

func validIPv6(s string) bool {
	if i := strings.IndexByte(s, '%'); i != -1 {
		s = s[:i]
	}
	return net.ParseIP(s) != nil
}

// checkTLSFiles verifies the manual certificate and key are present. A
// group- or world-accessible key is fatal in prod and a warning elsewhere.
func checkTLSFiles(cfg *config.Config, logger *zap.Logger) error {
	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	var permErr *keyPermError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &permErr) && cfg.Env != "prod":
		logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
		return nil
	default:
		return err
	}
}

type keyPermError struct {
	file string
	perm os.FileMode
}

func (e *keyPermError) Error() string {
	return fmt.Sprintf("TLS key file %s has overly permissive permissions %o (recommended: 0600)", e.file, e.perm)
}

func validateTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ what, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", f.what, f.path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", f.what, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.what, f.path)
		}
		if f.what == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return &keyPermError{file: f.path, perm: info.Mode().Perm()}
		}
	}
	return nil
}
