// checker/handlers.go
package checker

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/eaicheck/eai"
	"github.com/dalemusser/eaicheck/httputil"
	"github.com/dalemusser/eaicheck/middleware"
	"github.com/dalemusser/eaicheck/pantry/ratelimit"
	"github.com/dalemusser/eaicheck/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultBatchMax is used when HandlerOptions.BatchMax is not positive.
const DefaultBatchMax = 100

// Handler serves the HTML form flow and the JSON API.
type Handler struct {
	svc      *Service
	views    *templates.Engine
	logger   *zap.Logger
	batchMax int
	limiter  *ratelimit.KeyLimiter
	keyFunc  ratelimit.KeyFunc
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	BatchMax int

	// Limiter, when set, charges a batch for each extra address it carries
	// (the request itself is charged by the rate limit middleware).
	Limiter *ratelimit.KeyLimiter

	Logger *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc *Service, views *templates.Engine, opts HandlerOptions) *Handler {
	if opts.BatchMax <= 0 {
		opts.BatchMax = DefaultBatchMax
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		views:    views,
		logger:   opts.Logger,
		batchMax: opts.BatchMax,
		limiter:  opts.Limiter,
		keyFunc:  ratelimit.IPKeyFunc,
	}
}

// MountWeb attaches the HTML pages: GET / and GET /check.
func (h *Handler) MountWeb(r chi.Router) {
	r.Get("/", h.index)
	r.Get("/check", h.check)
}

// MountAPI attaches the JSON endpoints relative to r (normally /api).
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/check", h.apiCheckGet)
	r.With(middleware.RequireJSON()).Post("/check", h.apiCheckPost)
	r.With(middleware.RequireJSON()).Post("/check/batch", h.apiBatch)
}

// emailParam returns the trimmed email query parameter. net/http has
// already percent-decoded it.
func emailParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("email"))
}

// display makes raw input safe to show back: invalid UTF-8 is replaced.
func display(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// index renders the form. With an email it validates and either shows the
// error on the form or redirects to the result page.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if email == "" {
		h.views.Serve(w, http.StatusOK, "index", formView{})
		return
	}

	res := h.svc.Engine().Validate(email)
	if !res.Valid {
		h.views.Serve(w, http.StatusUnprocessableEntity, "index", formView{
			Email: display(email),
			Error: res.Kind.Message(),
		})
		return
	}
	http.Redirect(w, r, "/check?email="+url.QueryEscape(email), http.StatusSeeOther)
}

// check validates again (the query may not come from the form) and renders
// the classification and ASCII form.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if email == "" {
		h.views.Serve(w, http.StatusUnprocessableEntity, "invalid", formView{})
		return
	}

	rep := h.svc.Check(r.Context(), email)
	if !rep.Valid {
		h.views.Serve(w, http.StatusUnprocessableEntity, "invalid", formView{
			Email: display(email),
			Error: rep.Message,
		})
		return
	}
	h.views.Serve(w, http.StatusOK, "check", checkView{
		Email:        display(email),
		Report:       rep,
		ConvertError: eai.PunycodeConversionFailed.Message(),
	})
}

type checkRequest struct {
	Email string `json:"email"`
}

type batchRequest struct {
	Emails []string `json:"emails"`
}

type batchResponse struct {
	Reports []Report `json:"reports"`
	Valid   int      `json:"valid"`
	Invalid int      `json:"invalid"`
}

func (h *Handler) apiCheckGet(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if email == "" {
		httputil.JSONError(w, http.StatusBadRequest, "missing_email", "query parameter email is required")
		return
	}
	h.writeReport(w, h.svc.Check(r.Context(), email))
}

func (h *Handler) apiCheckPost(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.JSONError(w, http.StatusBadRequest, "missing_email", "field email is required")
		return
	}
	h.writeReport(w, h.svc.Check(r.Context(), req.Email))
}

// writeReport answers 200 for a valid address and 422 otherwise; the body
// is the Report in both cases.
func (h *Handler) writeReport(w http.ResponseWriter, rep Report) {
	status := http.StatusOK
	if !rep.Valid {
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, rep)
}

func (h *Handler) apiBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	n := len(req.Emails)
	switch {
	case n == 0:
		httputil.JSONError(w, http.StatusBadRequest, "missing_emails", "field emails must be a non-empty array")
		return
	case n > h.batchMax:
		httputil.JSONError(w, http.StatusRequestEntityTooLarge, "batch_too_large",
			"at most "+strconv.Itoa(h.batchMax)+" addresses per request")
		return
	}
	// The middleware already took one token, so a fresh bucket holds burst-1.
	// Capping the charge there lets a full batch drain it instead of failing.
	if charge := h.batchCharge(n); charge > 0 && !h.limiter.AllowN(h.keyFunc(r), charge) {
		w.Header().Set("Retry-After", "1")
		httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}

	resp := batchResponse{Reports: h.svc.CheckBatch(r.Context(), req.Emails)}
	for _, rep := range resp.Reports {
		if rep.Valid {
			resp.Valid++
		} else {
			resp.Invalid++
		}
	}
	h.logger.Debug("batch checked", zap.Int("count", n), zap.Int("invalid", resp.Invalid))
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// batchCharge is the number of tokens a batch of n addresses costs on top of
// the request itself.
func (h *Handler) batchCharge(n int) int {
	if h.limiter == nil {
		return 0
	}
	return max(0, min(n-1, h.limiter.Burst()-1))
}
