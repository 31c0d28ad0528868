package network

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// upgrader armazena as configurações para promover uma conexão HTTP para WebSocket.
var upgrader = websocket.Upgrader{
	// Para desenvolvimento, qualquer origem é aceita.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server aceita conexões TCP e websocket e entrega cada uma, em sua própria goroutine,
// ao ConnHandler do jogo.
type Server struct {
	handler ConnHandler
	hub     *Hub

	startOnce sync.Once
	ctx       context.Context
	wg        sync.WaitGroup
}

// NewServer recebe o ConnHandler. Este é o ponto de injeção da lógica do jogo.
func NewServer(handler ConnHandler) *Server {
	return &Server{
		handler: handler,
		hub:     NewHub(),
		ctx:     context.Background(),
	}
}

// Start inicia o Hub. Quando ctx terminar, todas as conexões ativas são fechadas.
func (s *Server) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.ctx = ctx
		go s.hub.Run(ctx)
	})
}

// ListenAndServe abre o listener TCP em address e serve até ctx terminar.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", address)
	}
	s.Start(ctx)
	return s.Serve(ln)
}

// Serve roda o loop de aceitação sobre ln. Retorna nil quando o contexto do servidor termina.
func (s *Server) Serve(ln net.Listener) error {
	s.Start(context.Background())

	stop := context.AfterFunc(s.ctx, func() { ln.Close() })
	defer stop()

	log.Info().Str("addr", ln.Addr().String()).Msg("tcp server listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept")
		}

		s.wg.Add(1)
		go s.handle(NewTCPConn(conn))
	}
}

// ServeHTTP promove a requisição para websocket e atende a conexão até ela terminar.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Start(context.Background())

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	s.wg.Add(1)
	s.handle(NewWebsocketConn(ws))
}

func (s *Server) handle(c Conn) {
	defer s.wg.Done()

	if !s.hub.Add(c) {
		c.Close()
		return
	}
	defer s.hub.Remove(c)

	s.handler.ServeConn(s.ctx, c)
}

// Connections devolve o número de conexões ativas.
func (s *Server) Connections() int {
	return s.hub.Len()
}

// Wait bloqueia até que todas as goroutines de conexão terminem.
func (s *Server) Wait() {
	s.wg.Wait()
}
