package session

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"rpsls/internal/network"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
	"rpsls/internal/session/message"
)

const maxNameLength = 32

// CommandHandlerFunc define a assinatura para todas as funções que lidam com mensagens.
// Um *protocol.ProtocolError ou *secure.Error retornado encerra a conexão.
type CommandHandlerFunc func(h *GameHandler, p *PlayerSession, msg protocol.Message) error

// GameHandler implementa network.ConnHandler. Cada conexão roda ServeConn na sua goroutine.
type GameHandler struct {
	registry *Registry
	keys     *secure.KeyPair

	// Um roteador por estado do jogador.
	routers map[State]map[protocol.Kind]CommandHandlerFunc
}

// NewGameHandler recebe o registry (único, criado por quem monta o servidor) e o par de chaves do servidor.
func NewGameHandler(registry *Registry, keys *secure.KeyPair) *GameHandler {
	h := &GameHandler{
		registry: registry,
		keys:     keys,
		routers:  make(map[State]map[protocol.Kind]CommandHandlerFunc),
	}
	h.registerHandshakeHandlers()
	h.registerGameHandlers()
	return h
}

func (h *GameHandler) route(state State, kind protocol.Kind, fn CommandHandlerFunc) {
	if h.routers[state] == nil {
		h.routers[state] = make(map[protocol.Kind]CommandHandlerFunc)
	}
	h.routers[state][kind] = fn
}

func (h *GameHandler) registerHandshakeHandlers() {
	h.route(StateAwaitingHello, protocol.KindHello, handleHello)
	h.route(StateAwaitingKeyExchange, protocol.KindSymmetricKey, handleSymmetricKey)
}

// ServeConn é o loop de leitura da conexão. Só a leitura bloqueia.
func (h *GameHandler) ServeConn(ctx context.Context, conn network.Conn) {
	p := NewPlayerSession(conn)
	stop := context.AfterFunc(ctx, p.Close)
	defer stop()
	defer h.disconnect(p)

	p.log.Debug().Msg("connection accepted")

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			var protoErr *protocol.ProtocolError
			if errors.As(err, &protoErr) {
				h.fail(p, err)
			} else if !errors.Is(err, io.EOF) && p.State() != StateClosed {
				p.log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		if err := h.dispatch(p, msg); err != nil {
			h.fail(p, err)
			return
		}
	}
}

// dispatch seleciona o roteador do estado atual e executa o handler da mensagem.
func (h *GameHandler) dispatch(p *PlayerSession, msg protocol.Message) error {
	state := p.State()
	if fn, found := h.routers[state][msg.Kind()]; found {
		return fn(h, p, msg)
	}

	// MOVE e READY fora de hora depois do handshake podem ser corridas com a saída do adversário:
	// o jogador recebe um ERROR e a conexão continua.
	if lenient(state, msg.Kind()) {
		p.log.Debug().Str("kind", string(msg.Kind())).Str("state", string(state)).Msg("message out of state")
		return message.SendError(p, "%s not accepted while %s", msg.Kind(), state)
	}

	return protocol.Violation("unexpected %s while %s", msg.Kind(), state)
}

func lenient(state State, kind protocol.Kind) bool {
	switch state {
	case StateWaitingForOpponent, StateInRound, StateAwaitingReadiness:
		return kind == protocol.KindMove || kind == protocol.KindReady
	}
	return false
}

// fail registra o erro, avisa o cliente quando possível e fecha a conexão.
func (h *GameHandler) fail(p *PlayerSession, err error) {
	var protoErr *protocol.ProtocolError
	var cryptoErr *secure.Error

	switch {
	case errors.As(err, &protoErr):
		p.log.Warn().Err(err).Msg("protocol violation")
		message.SendError(p, "protocol error: %s", protoErr.Reason)
	case errors.As(err, &cryptoErr):
		p.log.Warn().Err(err).Msg("crypto failure")
		message.SendError(p, "crypto error: %s", cryptoErr.Op)
	case errors.Is(err, ErrNameInUse), errors.Is(err, ErrServerFull):
		p.log.Info().Err(err).Msg("registration rejected")
		message.SendError(p, "%v", err)
	default:
		p.log.Debug().Err(err).Msg("connection closed")
	}
	p.Close()
}

func (h *GameHandler) disconnect(p *PlayerSession) {
	p.Close()
	h.registry.Unregister(p)
	p.log.Info().Msg("player disconnected")
}

func handleHello(h *GameHandler, p *PlayerSession, msg protocol.Message) error {
	hello := msg.(protocol.Hello)

	name := strings.TrimSpace(hello.Player)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return protocol.Violation("player name must have 1 to %d characters", maxNameLength)
	}

	p.setName(name)
	if err := h.registry.Register(p); err != nil {
		return err
	}

	p.setState(StateAwaitingKeyExchange)
	p.log.Info().Msg("player registered")
	return p.Send(protocol.PublicKey{Key: h.keys.PublicKey()})
}

func handleSymmetricKey(h *GameHandler, p *PlayerSession, msg protocol.Message) error {
	sealed := msg.(protocol.SymmetricKey)

	key, err := h.keys.OpenSessionKey(sealed.Key)
	if err != nil {
		return err
	}
	p.setKey(key)

	p.setState(StateWaitingForOpponent)
	if err := p.Send(protocol.WaitOpponent{}); err != nil {
		return err
	}

	p.log.Debug().Msg("key exchange complete")
	h.registry.Matchmake(p)
	return nil
}
