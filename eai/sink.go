// eai/sink.go
package eai

// Stage names the pipeline step that produced a Diagnostic.
type Stage string

const (
	StageEncoding  Stage = "encoding"
	StageValidate  Stage = "validate"
	StageTranscode Stage = "transcode"
)

// Diagnostic describes a single rejection. Sinks decide how to render it.
type Diagnostic struct {
	Stage Stage
	Kind  ErrorKind

	// Part is the component that failed: "address", "local", "domain" or "label".
	Part string

	// Value is the offending component (the whole input for Part "address").
	Value string

	// Length and Limit are set for length violations, in bytes.
	Length int
	Limit  int

	// Err is the underlying library error, if any.
	Err error
}

// Sink receives diagnostics for rejected input. Implementations must be safe
// for concurrent use and must not block.
type Sink interface {
	Diagnose(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(d Diagnostic)

// Diagnose implements Sink.
func (f SinkFunc) Diagnose(d Diagnostic) { f(d) }

type nopSink struct{}

func (nopSink) Diagnose(Diagnostic) {}

// NopSink discards every diagnostic.
var NopSink Sink = nopSink{}
