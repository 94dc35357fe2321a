package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/logger"
	"github.com/JPM1118/dearalarm/internal/notify"
)

// Server exposes the alarm commands over HTTP.
type Server struct {
	Alarm  *alarm.Controller
	Events *notify.Bar
}

func NewServer(c *alarm.Controller, events *notify.Bar) *Server {
	return &Server{Alarm: c, Events: events}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.WarnKV(r.Context(), "write healthz", "error", err)
		}
	})

	r.Route("/api/alarm", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Put("/target", s.handleSetTarget)
		r.Post("/arm", s.handleArm(true))
		r.Post("/disarm", s.handleArm(false))
		r.Post("/silence", s.handleSilence)
		r.Get("/events", s.handleEvents)
		r.Delete("/events", s.handleClearEvents)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoKV(ctx, "http control listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type targetPayload struct {
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
}

type statusResponse struct {
	Target  string `json:"target"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Armed   bool   `json:"armed"`
	Firing  bool   `json:"firing"`
	Playing bool   `json:"playing"`
	// Audible is set only when the sound backend reports playback.
	Audible *bool `json:"audible,omitempty"`
}

type eventResponse struct {
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.status())
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var p targetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Hour == nil || p.Minute == nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	t := alarm.Target{Hour: *p.Hour, Minute: *p.Minute}
	if !t.Valid() {
		http.Error(w, "hour must be 0-23 and minute 0-59", http.StatusBadRequest)
		return
	}

	s.Alarm.SetTarget(r.Context(), t.Hour, t.Minute)
	writeJSON(w, r, http.StatusOK, s.status())
}

func (s *Server) handleArm(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Alarm.SetArmed(r.Context(), active)
		writeJSON(w, r, http.StatusOK, s.status())
	}
}

func (s *Server) handleSilence(w http.ResponseWriter, r *http.Request) {
	s.Alarm.Silence(r.Context())
	writeJSON(w, r, http.StatusOK, s.status())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	out := []eventResponse{}
	if s.Events != nil {
		for _, n := range s.Events.All() {
			out = append(out, eventResponse{
				Kind:      string(n.Kind),
				Target:    n.Target.String(),
				Detail:    n.Detail,
				Timestamp: n.Timestamp,
			})
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleClearEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events != nil {
		s.Events.Clear()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) status() statusResponse {
	st := toStatus(s.Alarm.Snapshot())
	if audible, ok := s.Alarm.SinkPlaying(); ok {
		st.Audible = &audible
	}
	return st
}

func toStatus(s alarm.Snapshot) statusResponse {
	return statusResponse{
		Target:  s.Target.String(),
		Hour:    s.Target.Hour,
		Minute:  s.Target.Minute,
		Armed:   s.Armed,
		Firing:  s.LastDecision == alarm.Fire || s.LastDecision == alarm.AlreadyFired,
		Playing: s.Playing,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnKV(r.Context(), "write response", "path", r.URL.Path, "error", err)
	}
}
