// Package web serves the generated calendars as a subscription feed:
// one ICS document per Bundesland, regenerated on a cron schedule so
// the stamped timestamps stay current.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"feiertagskal/internal/auth"
	"feiertagskal/internal/config"
	"feiertagskal/internal/generate"
	"feiertagskal/internal/holiday"
	"feiertagskal/internal/ical"
	appLog "feiertagskal/internal/log"
)

// Server holds the rendered documents and the HTTP handlers around them.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	yearStart int
	yearEnd   int

	mu        sync.RWMutex
	docs      map[string]string
	updatedAt time.Time

	cron *cron.Cron
}

// NewServer constructs a Server for the given year range. Call Refresh
// once before serving so the first request already sees documents.
func NewServer(cfg *config.Config, yearStart, yearEnd int) *Server {
	s := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		yearStart: yearStart,
		yearEnd:   yearEnd,
		docs:      map[string]string{},
	}
	s.registerRoutes()
	return s
}

// Refresh regenerates all documents with a fresh run timestamp. States
// that fail are logged and keep their previous document, if any.
func (s *Server) Refresh() {
	res := generate.Feiertage(generate.Options{
		States:    s.cfg.States,
		YearStart: s.yearStart,
		YearEnd:   s.yearEnd,
		ICal:      ical.Config{ProdID: s.cfg.ProdID, URL: s.cfg.URL},
		Timestamp: time.Now().UTC(),
	})

	s.mu.Lock()
	for state, doc := range res.Documents {
		s.docs[state] = doc
	}
	s.updatedAt = time.Now().UTC()
	s.mu.Unlock()

	appLog.Info("calendars refreshed",
		"states", len(res.Documents), "failed", len(res.Failed))
}

// StartCron schedules periodic refreshes per the configured cron spec.
func (s *Server) StartCron() error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.RefreshCron, s.Refresh); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	appLog.Info("refresh schedule active", "cron", s.cfg.RefreshCron)
	return nil
}

// StopCron stops the refresh schedule, waiting for a running job.
func (s *Server) StopCron() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Handler returns the HTTP handler, wrapped with Basic Auth when
// credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.PasswordHash != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	passwordHash := s.cfg.BasicAuth.PasswordHash

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(u), []byte(username)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			passMatch, err = auth.VerifyPassword(p, passwordHash)
			if err != nil {
				appLog.Error("password verification failed", err)
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Feiertagskal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/states", s.handleStates)
	s.mux.HandleFunc("/calendars/", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type stateInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Path string `json:"path"`
}

func (s *Server) handleStates(w http.ResponseWriter, _ *http.Request) {
	infos := make([]stateInfo, 0, len(holiday.States))
	for _, state := range holiday.States {
		code, err := holiday.SubdivisionCode(state)
		if err != nil {
			continue
		}
		infos = append(infos, stateInfo{
			Name: state,
			Code: code,
			Path: "/calendars/" + state + ".ics",
		})
	}

	s.mu.RLock()
	updatedAt := s.updatedAt
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"states":     infos,
		"updated_at": updatedAt,
	}); err != nil {
		appLog.Error("encoding states response failed", err)
	}
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/calendars/")
	name = strings.TrimSuffix(name, ".ics")

	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if _, err := w.Write([]byte(doc)); err != nil {
		appLog.Error("writing calendar response failed", err, "state", name)
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, yearStart, yearEnd int) error {
	s := NewServer(cfg, yearStart, yearEnd)
	s.Refresh()
	if err := s.StartCron(); err != nil {
		return err
	}
	defer s.StopCron()

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
