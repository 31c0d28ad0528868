// Package admin expõe o lado HTTP do servidor: diagnóstico (/health, /stats, /players),
// encerramento de salas e o upgrade websocket em /ws.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"rpsls/internal/cluster"
	"rpsls/internal/session"
)

// Registry é o que o admin precisa saber do jogo.
type Registry interface {
	Stats() session.Stats
	Snapshot() []session.PlayerInfo
	EndRoom(id string) bool
}

// Server agrupa o router e suas dependências.
type Server struct {
	r        *chi.Mux
	name     string
	registry Registry
	health   *cluster.HealthAggregator
	ws       http.Handler
}

// New monta o router. ws pode ser nil, e então /ws não é registrado.
func New(name string, registry Registry, health *cluster.HealthAggregator, ws http.Handler) *Server {
	s := &Server{r: chi.NewRouter(), name: name, registry: registry, health: health, ws: ws}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(requestLogger)

	s.r.Get("/", s.handleIndex)
	s.r.Get("/health", health.Handler())
	s.r.Get("/stats", s.handleStats)
	s.r.Get("/players", s.handlePlayers)
	s.r.Delete("/rooms/{id}", s.handleEndRoom)
	if ws != nil {
		// Sem middleware de timeout: a conexão websocket vive enquanto o jogador estiver jogando.
		s.r.Get("/ws", ws.ServeHTTP)
	}

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	endpoints := []string{"/health", "/stats", "/players", "DELETE /rooms/{id}"}
	if s.ws != nil {
		endpoints = append(endpoints, "/ws")
	}
	writeJSON(w, http.StatusOK, map[string]any{"service": s.name, "endpoints": endpoints})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Stats())
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

func (s *Server) handleEndRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.registry.EndRoom(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room_not_found", "room": id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ended": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response failed")
	}
}

// requestLogger registra cada requisição com o request id do chi.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
