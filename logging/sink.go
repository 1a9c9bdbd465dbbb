// logging/sink.go
package logging

import (
	"unicode/utf8"

	"github.com/dalemusser/eaicheck/eai"
	"go.uber.org/zap"
)

// maxLoggedValue caps how much of a rejected component reaches the logs.
const maxLoggedValue = 32

// Sink adapts a zap.Logger to eai.Sink. Rejections are expected traffic, so
// they are logged at debug level.
type Sink struct {
	logger *zap.Logger

	// redact hides rejected values, logging only their byte length.
	redact bool
}

// NewSink returns an eai.Sink writing to logger. When redact is true (use it
// in prod) the offending value is replaced by its length.
func NewSink(logger *zap.Logger, redact bool) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger.Named("eai"), redact: redact}
}

// Diagnose implements eai.Sink.
func (s *Sink) Diagnose(d eai.Diagnostic) {
	ce := s.logger.Check(zap.DebugLevel, "address rejected")
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("stage", string(d.Stage)),
		zap.String("kind", d.Kind.String()),
		zap.String("part", d.Part),
		zap.Int("value_bytes", len(d.Value)),
	}
	if !s.redact {
		fields = append(fields, zap.String("value", truncate(d.Value, maxLoggedValue)))
	}
	if d.Limit > 0 {
		fields = append(fields, zap.Int("length", d.Length), zap.Int("limit", d.Limit))
	}
	if d.Err != nil {
		fields = append(fields, zap.Error(d.Err))
	}
	ce.Write(fields...)
}

// truncate shortens s to at most n bytes on a rune boundary. Invalid UTF-8 is
// logged by length only since it cannot be cut safely.
func truncate(s string, n int) string {
	if !utf8.ValidString(s) {
		return "<invalid utf-8>"
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
