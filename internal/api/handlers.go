// Package api exposes the health contract over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/health"
)

// PluginFactory returns the health backend serving the caller identified by claims.
type PluginFactory func(claims *auth.Claims) health.Plugin

// Handler coordinates HTTP requests with a health backend.
type Handler struct {
	plugins  PluginFactory
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(plugins PluginFactory) *Handler {
	return &Handler{plugins: plugins, validate: validator.New()}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/health/availability", h.availability)
	mux.HandleFunc("/v1/health/authorization/request", h.requestAuthorization)
	mux.HandleFunc("/v1/health/authorization/check", h.checkAuthorization)
	mux.HandleFunc("/v1/health/samples", h.samples)
	mux.HandleFunc("/v1/health/workouts", h.workouts)
	mux.HandleFunc("/v1/health/sleeps", h.sleeps)
	mux.HandleFunc("/v1/health/version", h.version)
	mux.HandleFunc("/v1/health/settings", h.settings)
	mux.HandleFunc("/v1/health/privacy-policy", h.privacyPolicy)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// plugin resolves the caller's backend after checking method and scopes. It writes the
// error response itself and returns nil when the request must stop.
func (h *Handler) plugin(w http.ResponseWriter, r *http.Request, method string, scopes ...string) health.Plugin {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return nil
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil
	}
	if len(scopes) > 0 && !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return nil
	}
	return h.plugins(claims)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodGet)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, p.IsAvailable(r.Context()))
}

func (h *Handler) requestAuthorization(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodPost, auth.ScopeHealthRead, auth.ScopeHealthWrite)
	if p == nil {
		return
	}
	opts, ok := h.decodeAuthorization(w, r)
	if !ok {
		return
	}
	status, err := p.RequestAuthorization(r.Context(), opts)
	if err != nil {
		writeHealthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) checkAuthorization(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodPost, auth.ScopeHealthRead, auth.ScopeHealthWrite)
	if p == nil {
		return
	}
	opts, ok := h.decodeAuthorization(w, r)
	if !ok {
		return
	}
	status, err := p.CheckAuthorization(r.Context(), opts)
	if err != nil {
		writeHealthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) samples(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.readSamples(w, r)
	case http.MethodPost:
		h.saveSample(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) readSamples(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodGet, auth.ScopeHealthRead)
	if p == nil {
		return
	}
	q := r.URL.Query()
	if q.Get("dataType") == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing dataType parameter")
		return
	}
	window, err := parseWindow(q.Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	result, err := p.ReadSamples(r.Context(), health.QueryOptions{
		DataType:  health.DataType(q.Get("dataType")),
		StartDate: window.start,
		EndDate:   window.end,
		Limit:     window.limit,
		Ascending: window.ascending,
	})
	if err != nil {
		writeHealthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) saveSample(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodPost, auth.ScopeHealthWrite)
	if p == nil {
		return
	}
	var req SaveSampleRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := p.SaveSample(r.Context(), health.WriteSampleOptions{
		DataType:  health.DataType(req.DataType),
		Value:     *req.Value,
		Unit:      health.Unit(req.Unit),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeHealthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodGet, auth.ScopeHealthRead)
	if p == nil {
		return
	}
	q := r.URL.Query()
	window, err := parseWindow(q.Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	opts := health.QueryWorkoutsOptions{
		StartDate: window.start,
		EndDate:   window.end,
		Limit:     window.limit,
		Ascending: window.ascending,
	}
	if raw := q.Get("workoutType"); raw != "" {
		opts.WorkoutType = health.Ptr(health.WorkoutType(raw))
	}
	result, err := p.QueryWorkouts(r.Context(), opts)
	if err != nil {
		writeHealthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) sleeps(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodGet, auth.ScopeHealthRead)
	if p == nil {
		return
	}
	window, err := parseWindow(r.URL.Query().Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	result, err := p.QuerySleeps(r.Context(), health.QuerySleepOptions{
		StartDate: window.start,
		EndDate:   window.end,
		Limit:     window.limit,
		Ascending: window.ascending,
	})
	if err != nil {
		writeHealthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) version(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodGet)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, p.GetPluginVersion(r.Context()))
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodPost)
	if p == nil {
		return
	}
	if err := p.OpenHealthConnectSettings(r.Context()); err != nil {
		writeHealthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) privacyPolicy(w http.ResponseWriter, r *http.Request) {
	p := h.plugin(w, r, http.MethodPost)
	if p == nil {
		return
	}
	if err := p.ShowPrivacyPolicy(r.Context()); err != nil {
		writeHealthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuthorizationRequest is the payload for the authorization endpoints.
type AuthorizationRequest struct {
	Read  []string `json:"read" validate:"omitempty,dive,required"`
	Write []string `json:"write" validate:"omitempty,dive,required"`
}

// SaveSampleRequest is the payload for POST /v1/health/samples.
type SaveSampleRequest struct {
	DataType  string            `json:"dataType" validate:"required"`
	Value     *float64          `json:"value" validate:"required"`
	Unit      string            `json:"unit,omitempty"`
	StartDate *time.Time        `json:"startDate,omitempty"`
	EndDate   *time.Time        `json:"endDate,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (h *Handler) decodeAuthorization(w http.ResponseWriter, r *http.Request) (health.AuthorizationOptions, bool) {
	var req AuthorizationRequest
	if !h.decode(w, r, &req) {
		return health.AuthorizationOptions{}, false
	}
	return health.AuthorizationOptions{Read: toDataTypes(req.Read), Write: toDataTypes(req.Write)}, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func toDataTypes(raw []string) []health.DataType {
	out := make([]health.DataType, 0, len(raw))
	for _, s := range raw {
		out = append(out, health.DataType(s))
	}
	return out
}

type queryWindow struct {
	start     *time.Time
	end       *time.Time
	limit     *int
	ascending bool
}

var errInvalidLimit = errors.New("limit must be a positive integer")

func parseWindow(get func(string) string) (queryWindow, error) {
	var w queryWindow
	if raw := get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return queryWindow{}, errors.New("startDate must be an RFC 3339 timestamp")
		}
		w.start = &t
	}
	if raw := get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return queryWindow{}, errors.New("endDate must be an RFC 3339 timestamp")
		}
		w.end = &t
	}
	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return queryWindow{}, errInvalidLimit
		}
		w.limit = &n
	}
	if raw := get("ascending"); raw != "" {
		asc, err := strconv.ParseBool(raw)
		if err != nil {
			return queryWindow{}, errors.New("ascending must be a boolean")
		}
		w.ascending = asc
	}
	return w, nil
}

func writeHealthError(w http.ResponseWriter, err error) {
	switch health.KindOf(err) {
	case health.KindInvalidArgument:
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case health.KindUnauthorized:
		writeError(w, http.StatusForbidden, "unauthorized", err.Error())
	case health.KindNotSupported:
		writeError(w, http.StatusNotImplemented, "not_supported", err.Error())
	case health.KindPlatformFailure:
		writeError(w, http.StatusBadGateway, "platform_failure", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
