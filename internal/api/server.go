// Package api exposes the HTTP interface for the news digest service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/config"
	"github.com/smartcampus/newsdigest/internal/daily"
	"github.com/smartcampus/newsdigest/internal/news"
	"github.com/smartcampus/newsdigest/internal/qa"
	"github.com/smartcampus/newsdigest/internal/store"
)

// DailyService is the daily job surface consumed by the HTTP layer.
type DailyService interface {
	Run(ctx context.Context, target string) (daily.Result, error)
	ReportByDate(date string) (news.DailyReport, error)
	RecentReports(n int) []news.DailyReport
	Weekly(ctx context.Context, end string) (news.WeeklyReport, error)
}

// AskService answers questions from recent briefs.
type AskService interface {
	Ask(ctx context.Context, question string, days int, audience news.Audience) (qa.Answer, error)
}

// Server wires HTTP handlers to the daily and QA services.
type Server struct {
	router chi.Router
	daily  DailyService
	qa     AskService
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(dailySvc DailyService, askSvc AskService, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		daily:  dailySvc,
		qa:     askSvc,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	// Weekly aggregation can backfill up to seven crawl+generate cycles.
	r.Use(timeoutMiddleware(10 * time.Minute))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/daily-job", s.runDailyJob)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/recent", s.recentReports)
			r.Get("/weekly", s.weeklyReport)
			r.Get("/{date}", s.reportByDate)
		})
		r.Post("/ask", s.ask)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// File stores are created at startup; nothing further to probe.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type dailyJobRequest struct {
	TargetDate string `json:"target_date"`
}

func (s *Server) runDailyJob(w http.ResponseWriter, r *http.Request) {
	var req dailyJobRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	result, err := s.daily.Run(r.Context(), req.TargetDate)
	if err != nil {
		s.logger.Error("daily job failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) reportByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	report, err := s.daily.ReportByDate(date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "report not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) recentReports(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	reports := s.daily.RecentReports(days)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(reports),
		"reports": reports,
	})
}

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.daily.Weekly(r.Context(), r.URL.Query().Get("end"))
	if err != nil {
		s.logger.Error("weekly aggregation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type askRequest struct {
	Question string `json:"question"`
	Days     int    `json:"days"`
	Identity string `json:"user_identity"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "question required")
		return
	}
	audience := news.Audience(req.Identity)
	if req.Identity == "" {
		audience = news.AudienceStudent
	}
	if !audience.Valid() {
		s.writeError(w, http.StatusBadRequest, "user_identity must be student or teacher")
		return
	}
	answer, err := s.qa.Ask(r.Context(), req.Question, req.Days, audience)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, answer)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
