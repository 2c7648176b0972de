package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"MoleculeRadar/internal/domain"
	"MoleculeRadar/internal/usecase"
)

// Router exposes the orchestration pipeline over HTTP. The presentation layer
// itself lives elsewhere; this boundary only moves validated report
// structures in and out.
type Router struct {
	svc    *usecase.Service
	logger *slog.Logger
}

// NewRouter mounts the analysis endpoints on a chi mux.
func NewRouter(svc *usecase.Service, logger *slog.Logger) http.Handler {
	r := &Router{svc: svc, logger: logger}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/compare", r.wrap(r.handleCompare))
		rt.Post("/deepdive", r.wrap(r.handleDeepDive))
		rt.Get("/reports/latest", r.wrap(r.handleLatest))
		rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps the error taxonomy onto HTTP statuses: malformed requests are the
// caller's fault, everything else is a server error. Degraded reports are not
// errors and flow through as 200s.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var cfgErr *domain.ConfigurationError
		var routeErr *domain.RoutingError
		switch {
		case errors.As(err, &cfgErr):
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
		case errors.As(err, &routeErr):
			http.Error(w, routeErr.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "report not found", http.StatusNotFound)
		default:
			if r.logger != nil {
				r.logger.Error("request failed", "path", req.URL.Path, "error", err)
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type analyzeRequest struct {
	MoleculeID string                  `json:"molecule_id"`
	Indication string                  `json:"indication,omitempty"`
	Overrides  map[string]unitOverride `json:"overrides,omitempty"`
}

type unitOverride struct {
	DeadlineMS int64             `json:"deadline_ms,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

// POST /v1/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ConfigurationError{Reason: "invalid request body: " + err.Error()}
	}
	if body.MoleculeID == "" {
		return &domain.ConfigurationError{Reason: "molecule_id is required"}
	}

	report, err := r.svc.Analyze(req.Context(), body.MoleculeID, body.Indication, toOverrides(body.Overrides))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, report)
}

type compareRequest struct {
	MoleculeIDs []string `json:"molecule_ids"`
	Indication  string   `json:"indication,omitempty"`
}

// POST /v1/compare
func (r *Router) handleCompare(w http.ResponseWriter, req *http.Request) error {
	var body compareRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ConfigurationError{Reason: "invalid request body: " + err.Error()}
	}

	report, err := r.svc.Compare(req.Context(), body.MoleculeIDs, body.Indication)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, report)
}

type deepDiveRequest struct {
	ReportID string `json:"report_id"`
	Role     string `json:"role"`
	Question string `json:"question"`
}

// POST /v1/deepdive
func (r *Router) handleDeepDive(w http.ResponseWriter, req *http.Request) error {
	var body deepDiveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &domain.ConfigurationError{Reason: "invalid request body: " + err.Error()}
	}
	if body.ReportID == "" {
		return &domain.ConfigurationError{Reason: "report_id is required"}
	}

	answer, err := r.svc.Ask(req.Context(), body.ReportID, domain.UnitRole(body.Role), body.Question)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]string{
		"report_id": body.ReportID,
		"role":      body.Role,
		"answer":    answer,
	})
}

// GET /v1/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	report, err := r.svc.GetReport(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, report)
}

// GET /v1/reports/latest?limit=N
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit := 20
	if v := req.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return &domain.ConfigurationError{Reason: "limit must be a positive integer"}
		}
		limit = parsed
	}

	reports, err := r.svc.LatestReports(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, reports)
}

func toOverrides(raw map[string]unitOverride) map[domain.UnitRole]domain.UnitOverride {
	if len(raw) == 0 {
		return nil
	}
	overrides := make(map[domain.UnitRole]domain.UnitOverride, len(raw))
	for role, ov := range raw {
		overrides[domain.UnitRole(role)] = domain.UnitOverride{
			Deadline: time.Duration(ov.DeadlineMS) * time.Millisecond,
			Options:  ov.Options,
		}
	}
	return overrides
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
