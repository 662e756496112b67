// Package web serves the operator-facing status endpoint.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mbocsi/sparkbot/bot"
	"github.com/mbocsi/sparkbot/realtime"
)

// StatusSource is what the endpoint needs from the bot.
type StatusSource interface {
	ConnectionState() realtime.State
	DisplayName() string
	Commands() []*bot.Command
}

type Status struct {
	State       string        `json:"state"`
	DisplayName string        `json:"displayName"`
	Commands    []CommandInfo `json:"commands"`
}

type CommandInfo struct {
	Keyword         string `json:"keyword,omitempty"`
	CallbackKeyword string `json:"callbackKeyword,omitempty"`
	Help            string `json:"help,omitempty"`
}

type Server struct {
	addr   string
	source StatusSource
	server *http.Server
}

func NewServer(addr string, source StatusSource) *Server {
	return &Server{addr: addr, source: source}
}

func (s *Server) Start() error {
	slog.Info("Starting status server", "addr", s.addr)

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	s.server = &http.Server{Addr: s.addr, Handler: r}
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	slog.Info("Shutting down status server", "addr", s.addr)
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := Status{
		State:       s.source.ConnectionState().String(),
		DisplayName: s.source.DisplayName(),
	}
	for _, c := range s.source.Commands() {
		status.Commands = append(status.Commands, CommandInfo{
			Keyword:         c.Keyword,
			CallbackKeyword: c.CallbackKeyword,
			Help:            c.Help,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Warn("Failed to encode status", "error", err)
	}
}
