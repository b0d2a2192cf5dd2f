package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/InfraBoard/internal/domain"
	"github.com/ghalamif/InfraBoard/internal/ports"
)

//go:embed templates/index.html
var templateFS embed.FS

// ReportRunner produces one report per call.
type ReportRunner interface {
	Run(ctx context.Context, f domain.Filter) (*domain.Report, error)
}

type Handler struct {
	runner ReportRunner
	cfg    Config
	obs    ports.Observability
	tmpl   *template.Template
}

func NewHandler(runner ReportRunner, cfg Config, obs ports.Observability) (*Handler, error) {
	if runner == nil {
		return nil, errors.New("report runner is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{runner: runner, cfg: cfg, obs: obs, tmpl: tmpl}, nil
}

func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", h.serveDashboard)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.serveWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/report", h.handleReport)
		r.Get("/kpis", h.handleKPIs)
	})
	return r
}

type pageData struct {
	Title    string
	Columns  int
	Charts   []string
	Palette  map[string]string
	Statuses []string
	Report   *domain.Report
}

func (h *Handler) serveDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rep, err := h.runner.Run(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	data := pageData{
		Title:    h.cfg.Title,
		Columns:  h.cfg.Columns,
		Charts:   h.cfg.Charts,
		Palette:  h.cfg.Palette,
		Statuses: kpiStatuses(rep),
		Report:   rep,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logError("template_render_failed", err)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := h.runner.Run(r.Context(), f)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := h.runner.Run(r.Context(), f)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep.KPIs)
}

func (h *Handler) logError(msg string, err error) {
	if h.obs != nil {
		h.obs.LogError(msg, err)
	}
}

// statusFor maps a failed pass to an HTTP status. A dataset that cannot be
// read, or that lacks its date or status column, makes the service unavailable.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDatasetNotFound), errors.Is(err, domain.ErrMissingColumn):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func kpiStatuses(rep *domain.Report) []string {
	out := make([]string, 0, len(rep.KPIs))
	for _, k := range rep.KPIs {
		out = append(out, k.Status)
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
