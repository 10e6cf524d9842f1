package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/timescope/timescope/internal/aggregate"
	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/report"
	"github.com/timescope/timescope/internal/storage"
)

// Handler serves aggregated views over HTTP. All endpoints are read-only;
// writes stay with the sampler.
type Handler struct {
	cfg      *config.Config
	repo     *storage.Repository
	reporter *report.Reporter
}

func NewHandler(cfg *config.Config, repo *storage.Repository) *Handler {
	return &Handler{
		cfg:      cfg,
		repo:     repo,
		reporter: report.New(cfg, repo),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/day", h.handleDay)
	mux.HandleFunc("/api/week", h.handleWeek)
	mux.HandleFunc("/api/samples", h.handleSamples)
	mux.HandleFunc("/api/storage", h.handleStorage)
	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dayReport, err := h.reporter.Day(date)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load day: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, dayReport)
}

func (h *Handler) handleWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	weekReport, err := h.reporter.Week(date)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load week: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, weekReport)
}

func (h *Handler) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := dateParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end := aggregate.DayWindow(date, h.cfg.Day.EndOfDayOffset)
	samples, err := h.repo.QueryRange(start, end)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to query samples: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, samples)
}

func (h *Handler) handleStorage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info, err := h.repo.Info()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to inspect storage: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, info)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// dateParam reads the ?date=YYYY-MM-DD parameter, defaulting to today.
func dateParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}

	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
