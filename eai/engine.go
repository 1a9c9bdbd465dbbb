// Package eai validates Internationalized Email Addresses (RFC 6531) and
// converts their domains to ASCII-Compatible Encoding (RFC 5890/5891).
//
// The pipeline is:
//
//	encoding guard → structural validation → classification → ACE transcoding
//
// Every step is a pure function of its input. Rejections are returned as
// values carrying an ErrorKind; human-readable detail goes to an injected Sink.
//
// Basic usage:
//
//	e := eai.New()
//	if res := e.Validate(addr); !res.Valid {
//	    return res.Kind.Message()
//	}
//	out := e.Transcode(addr) // out.Value == "用户@xn--r8jz45g.jp"
package eai

// Engine runs the validation and transcoding pipeline. An Engine is immutable
// after New and safe for concurrent use.
type Engine struct {
	uni         Unicode
	sink        Sink
	quotedLocal bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnicode replaces the Unicode primitives (default: NewXText()).
func WithUnicode(u Unicode) Option {
	return func(e *Engine) {
		if u != nil {
			e.uni = u
		}
	}
}

// WithSink routes rejection diagnostics to s (default: NopSink).
func WithSink(s Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithQuotedLocal makes Validate strip one pair of surrounding double quotes
// from the local part before applying local-part rules.
func WithQuotedLocal(enable bool) Option {
	return func(e *Engine) {
		e.quotedLocal = enable
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		uni:  NewXText(),
		sink: NopSink,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Unicode returns the primitives the engine was built with, for startup checks.
func (e *Engine) Unicode() Unicode {
	return e.uni
}

func (e *Engine) diagnose(d Diagnostic) {
	e.sink.Diagnose(d)
}

var defaultEngine = New()

// Validate runs structural validation with the default Engine.
func Validate(email string) ValidationResult {
	return defaultEngine.Validate(email)
}

// Transcode runs ACE transcoding with the default Engine.
func Transcode(email string) TranscodeResult {
	return defaultEngine.Transcode(email)
}
