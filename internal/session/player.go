package session

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rpsls/internal/game/move"
	"rpsls/internal/network"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
	"rpsls/internal/session/message"
)

// State é a fase da conexão de um jogador.
type State string

// Constantes de estado da sessão para evitar erros de digitação.
const (
	StateAwaitingHello       State = "awaiting_hello"        // Conexão aberta, esperando o HELLO.
	StateAwaitingKeyExchange State = "awaiting_key_exchange" // Chave pública enviada, esperando a chave simétrica.
	StateWaitingForOpponent  State = "waiting_for_opponent"  // No pool de pareamento.
	StateInRound             State = "in_round"              // Rodada aberta, esperando a jogada.
	StateAwaitingReadiness   State = "awaiting_readiness"    // Resultado entregue, esperando READY.
	StateClosed              State = "closed"
)

// PlayerSession representa um jogador único e conectado ao servidor.
// O nome e a chave são definidos uma única vez; estado e sala mudam tanto pela
// goroutine da própria conexão quanto pela de um adversário (via Registry).
type PlayerSession struct {
	conn network.Conn
	log  zerolog.Logger

	// writeMu serializa as escritas: a própria goroutine e as dos adversários enviam por aqui.
	writeMu sync.Mutex

	mu    sync.Mutex
	name  string
	key   *secure.SessionKey
	state State
	room  *GameRoom

	closeOnce sync.Once
}

// NewPlayerSession cria e inicializa uma nova sessão de jogador.
func NewPlayerSession(conn network.Conn) *PlayerSession {
	return &PlayerSession{
		conn:  conn,
		log:   log.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		state: StateAwaitingHello,
	}
}

func (p *PlayerSession) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

func (p *PlayerSession) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Room devolve a sala atual ou nil.
func (p *PlayerSession) Room() *GameRoom {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

func (p *PlayerSession) setName(name string) {
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
	p.log = p.log.With().Str("player", name).Logger()
}

func (p *PlayerSession) setKey(key *secure.SessionKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = key
}

func (p *PlayerSession) sessionKey() *secure.SessionKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

func (p *PlayerSession) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateClosed {
		p.state = s
	}
}

// bindRoom associa o jogador a uma rodada aberta de room.
func (p *PlayerSession) bindRoom(room *GameRoom) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateClosed {
		return
	}
	p.room = room
	p.state = StateInRound
}

// unbindRoom devolve o jogador ao pool, se ele ainda estiver na sala room.
func (p *PlayerSession) unbindRoom(room *GameRoom) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.room != room || p.state == StateClosed {
		return false
	}
	p.room = nil
	p.state = StateWaitingForOpponent
	return true
}

// Send escreve uma mensagem sob o lock de escrita da conexão. Uma falha de escrita
// fecha a conexão; a limpeza fica com a goroutine dona dela.
func (p *PlayerSession) Send(msg protocol.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.conn.WriteMessage(msg); err != nil {
		p.log.Debug().Err(err).Str("kind", string(msg.Kind())).Msg("send failed")
		p.Close()
		return err
	}
	return nil
}

// deliverResult entrega o resultado cifrado com a chave deste jogador e passa a esperar READY.
// Não faz nada se o jogador já saiu de room (adversário desconectou e ele voltou ao pool).
func (p *PlayerSession) deliverResult(room *GameRoom, r move.Result) error {
	p.mu.Lock()
	if p.room != room || p.state == StateClosed {
		p.mu.Unlock()
		return nil
	}
	p.state = StateAwaitingReadiness
	key := p.key
	p.mu.Unlock()

	msg, err := message.NewResult(key, r)
	if err != nil {
		p.log.Error().Err(err).Msg("encrypt result")
		p.Close()
		return err
	}
	return p.Send(msg)
}

// Close fecha o transporte, o que destrava a leitura da goroutine da conexão. Idempotente.
func (p *PlayerSession) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.state = StateClosed
		p.mu.Unlock()
		p.conn.Close()
	})
}
