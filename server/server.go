// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dalemusser/eaicheck/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM. The
// returned cancel also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, HTTPS with
// manual certificates, or HTTPS with Let's Encrypt (http-01), depending on
// cfg. In both HTTPS modes a second server on :80 redirects to HTTPS (and
// answers ACME challenges). It blocks until ctx is canceled or a server
// fails.
func ListenAndServeWithContext(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, "", handler, logger)

	var (
		aux    *http.Server
		auxErr chan error // nil unless aux runs; a nil channel never fires in select
		ln     net.Listener
		err    error
	)

	switch {
	case !cfg.HTTP.UseHTTPS:
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		aux, auxErr = startAux(cfg, m.HTTPHandler(httpRedirectHandler()), logger)
		logger.Info("ACME + redirect server listening", zap.String("addr", aux.Addr))

		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
		}
		ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate})
		if err != nil {
			_ = shutdownAux(context.Background(), aux)
			return err
		}
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", ln.Addr().String()), zap.String("domain", cfg.TLS.Domain))

	default:
		if err := checkTLSFiles(cfg, logger); err != nil {
			return err
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		aux, auxErr = startAux(cfg, httpRedirectHandler(), logger)
		logger.Info("HTTP → HTTPS redirect server listening", zap.String("addr", aux.Addr))

		ln, err = listenTLS(cfg, &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}})
		if err != nil {
			_ = shutdownAux(context.Background(), aux)
			return err
		}
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", ln.Addr().String()), zap.String("cert_file", cfg.TLS.CertFile))
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			// ctx is already done; the shutdown window is measured from here.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdownAux(shutdownCtx, aux)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdownAux(context.Background(), aux)
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				if closeErr := srv.Close(); closeErr != nil {
					logger.Error("failed to close primary server after auxiliary crash", zap.Error(closeErr))
				}
				_ = ln.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

func newHTTPServer(cfg *config.Config, addr string, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	} else {
		logger.Warn("failed to attach stdlib error logger", zap.Error(err))
	}
	return srv
}

// startAux runs the :80 companion server. It reports at most one value on
// the returned channel.
func startAux(cfg *config.Config, h http.Handler, logger *zap.Logger) (*http.Server, chan error) {
	aux := newHTTPServer(cfg, ":80", h, logger)
	ch := make(chan error, 1)
	go func() {
		if err := aux.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- err
			return
		}
		ch <- nil
	}()
	return aux, ch
}

func shutdownAux(ctx context.Context, aux *http.Server) error {
	if aux == nil {
		return nil
	}
	return aux.Shutdown(ctx)
}

func listenTLS(cfg *config.Config, tlsCfg *tls.Config) (net.Listener, error) {
	addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
	base, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen https %s: %w", addr, err)
	}
	return tls.NewListener(base, tlsCfg), nil
}

// waitForCert blocks until autocert holds a certificate for host, the
// timeout passes, or ctx ends, whichever is first.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-time.After(time.Second):
		}
	}
}
