// Package httpinteractions recibe interacciones por HTTP (Interactions
// Endpoint URL) y expone /healthz y /metrics.
package httpinteractions

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/soup-bot/internal/adapters/discord"
)

// Discord corta a los 3s; contestamos con un defer antes.
const defaultAckWait = 2500 * time.Millisecond

const maxBody = 1 << 20

// Handler atiende una interaccion ya verificada.
type Handler interface {
	HandleInteraction(rs discord.Responder, i *discordgo.Interaction)
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

func WithAckWait(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.ackWait = d
		}
	}
}

// WithInteractions habilita POST /interactions. rest contesta todo lo que
// llega despues de la respuesta HTTP (followups, ediciones).
func WithInteractions(pub ed25519.PublicKey, h Handler, rest discord.Responder) Option {
	return func(s *Server) {
		s.pub = pub
		s.handler = h
		s.rest = rest
	}
}

func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

type Server struct {
	pub     ed25519.PublicKey
	handler Handler
	rest    discord.Responder
	metrics http.Handler
	ackWait time.Duration
	log     *slog.Logger

	mux *http.ServeMux
	srv *http.Server
}

func New(opts ...Option) *Server {
	s := &Server{
		ackWait: defaultAckWait,
		log:     slog.Default(),
		mux:     http.NewServeMux(),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
	if s.pub != nil && s.handler != nil {
		s.mux.HandleFunc("/interactions", s.handleInteraction)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if !discordgo.VerifyInteraction(r, s.pub) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var i discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		http.Error(w, "bad interaction", http.StatusBadRequest)
		return
	}

	if i.Type == discordgo.InteractionPing {
		writeJSON(w, &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	rs := newResponder(s.rest)
	go s.handler.HandleInteraction(rs, &i)

	timer := time.NewTimer(s.ackWait)
	defer timer.Stop()
	select {
	case resp := <-rs.first:
		writeJSON(w, resp)
	case <-timer.C:
		resp, late := rs.timeout(i.Type)
		if late {
			s.log.Warn("interaction not answered in time, deferring", "interaction", i.ID)
		}
		writeJSON(w, resp)
	case <-r.Context().Done():
		s.log.Warn("interaction request cancelled", "interaction", i.ID)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Start bloquea hasta Shutdown.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("🌐 HTTP listening", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
