// httputil/json.go
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrorResponse is the JSON error envelope for request-level failures
// (bad JSON, oversize batch, rate limiting). Address rejections are not
// errors at this level; they are reported in the check body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var jsonLogger = zap.NewNop()

// SetLogger configures the logger used for JSON encoding errors. Call it
// once during startup.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		jsonLogger = logger
	}
}

// WriteJSON writes v as JSON with the given status code. Status codes
// outside 100-599 become 500. Encoding errors can only be logged, since the
// header has already gone out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
	}
}

// JSONError writes a structured JSON error with a code and message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// BindJSON decodes the request body as a single JSON value into v, rejecting
// unknown fields. Returned errors are safe to show to clients.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return parseJSONError(err)
	}
	if dec.More() {
		return errors.New("request body contains multiple JSON values")
	}
	return nil
}

func parseJSONError(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("invalid value for field %q: expected %s", typeErr.Field, typeErr.Type.String())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errors.New("request body too large")
	}

	// encoding/json has no typed error for unknown fields.
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Errorf("unknown field %q", strings.Trim(field, "\""))
	}

	return errors.New("invalid JSON in request body")
}
