// checker/service.go
package checker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/eaicheck/eai"
	"github.com/dalemusser/eaicheck/metrics"
	"github.com/dalemusser/eaicheck/pantry/cache"
	"go.uber.org/zap"
)

// Report is the complete outcome of checking one address.
type Report struct {
	Input string `json:"input"`

	Valid   bool          `json:"valid"`
	Kind    eai.ErrorKind `json:"error_kind,omitempty"`
	Message string        `json:"message,omitempty"`

	Internationalized bool `json:"internationalized"`

	// ASCII is the address with its domain in ACE form. Only valid
	// addresses are transcoded.
	ASCII     string        `json:"ascii,omitempty"`
	ASCIIOK   bool          `json:"ascii_ok"`
	ASCIIKind eai.ErrorKind `json:"ascii_error_kind,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// Service runs the engine pipeline for the web and CLI front ends.
type Service struct {
	engine    *eai.Engine
	cache     cache.Cache
	ttl       time.Duration
	namespace string
	logger    *zap.Logger
}

// Options configures a Service.
type Options struct {
	// Cache is optional; nil disables caching.
	Cache cache.Cache
	TTL   time.Duration

	// Namespace separates cache entries produced under different engine
	// options (e.g., quoted local parts on or off).
	Namespace string

	Logger *zap.Logger
}

// NewService wires engine to the optional cache.
func NewService(engine *eai.Engine, opts Options) *Service {
	if engine == nil {
		engine = eai.New()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Namespace == "" {
		opts.Namespace = "check"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		engine:    engine,
		cache:     opts.Cache,
		ttl:       opts.TTL,
		namespace: opts.Namespace,
		logger:    opts.Logger,
	}
}

// Engine returns the underlying engine.
func (s *Service) Engine() *eai.Engine {
	return s.engine
}

// Check trims surrounding whitespace from email, then validates, classifies
// and (when valid) transcodes it. Cache failures are logged and the report is
// computed directly.
func (s *Service) Check(ctx context.Context, email string) Report {
	email = strings.TrimSpace(email)
	key := cache.Key(s.namespace, email)

	rep, err := cache.GetJSON[Report](ctx, s.cache, key)
	switch {
	case err == nil:
		// Input is not trusted from the cache: it may have been replaced
		// with U+FFFD when the original was invalid UTF-8.
		rep.Input = email
	default:
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("cache get failed", zap.Error(err))
		}
		rep = s.compute(email)
		if err := cache.SetJSON(ctx, s.cache, key, rep, s.ttl); err != nil {
			s.logger.Warn("cache set failed", zap.Error(err))
		}
	}

	metrics.RecordCheck(rep.Valid, rep.Kind, rep.Internationalized)
	return rep
}

// CheckBatch checks each address in order.
func (s *Service) CheckBatch(ctx context.Context, emails []string) []Report {
	out := make([]Report, len(emails))
	for i, e := range emails {
		out[i] = s.Check(ctx, e)
	}
	return out
}

func (s *Service) compute(email string) Report {
	rep := Report{
		Input:             email,
		Internationalized: s.engine.IsInternationalized(email),
	}

	v := s.engine.Validate(email)
	rep.Valid = v.Valid
	if !v.Valid {
		rep.Kind = v.Kind
		rep.Message = v.Kind.Message()
		return rep
	}

	t := s.engine.Transcode(email)
	rep.ASCIIOK = t.OK
	if t.OK {
		rep.ASCII = t.Value
	} else {
		rep.ASCIIKind = t.Kind
		rep.Detail = t.Detail
	}
	return rep
}
