package network

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Hub mantém o conjunto de conexões ativas. Quando o contexto do servidor termina,
// fecha todas elas, o que destrava a leitura de cada goroutine de conexão.
type Hub struct {
	// Conexões registradas. Acessado SOMENTE pela goroutine do Hub.
	conns map[Conn]struct{}

	register   chan Conn
	unregister chan Conn
	count      chan chan int

	// Fechado quando Run retorna; a partir daí registrar falha.
	done chan struct{}
}

// NewHub cria, inicializa e retorna um novo Hub.
func NewHub() *Hub {
	return &Hub{
		conns:      make(map[Conn]struct{}),
		register:   make(chan Conn),
		unregister: make(chan Conn),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run é o loop do Hub. Bloqueia até ctx terminar.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.conns[c] = struct{}{}
			log.Debug().Str("remote", c.RemoteAddr().String()).Int("conns", len(h.conns)).Msg("connection registered")

		case c := <-h.unregister:
			if _, ok := h.conns[c]; ok {
				delete(h.conns, c)
				log.Debug().Str("remote", c.RemoteAddr().String()).Int("conns", len(h.conns)).Msg("connection unregistered")
			}

		case reply := <-h.count:
			reply <- len(h.conns)

		case <-ctx.Done():
			for c := range h.conns {
				c.Close()
			}
			log.Info().Int("closed", len(h.conns)).Msg("hub stopped")
			return
		}
	}
}

// Add registra a conexão. Retorna false se o Hub já parou; nesse caso a conexão deve ser descartada.
func (h *Hub) Add(c Conn) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Remove desregistra a conexão. Não bloqueia depois que o Hub parou.
func (h *Hub) Remove(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Len devolve o número de conexões ativas (0 depois que o Hub parou).
func (h *Hub) Len() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}
