// Package client é o lado jogador do protocolo: handshake, troca de chaves,
// envio de jogadas cifradas e espera pelos resultados. Usado pelos bots e pelo cliente de terminal.
package client

import (
	"context"
	"net"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rpsls/internal/game/move"
	"rpsls/internal/network"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
	"rpsls/internal/session/message"
)

type moveOutcome struct {
	result move.Result
	err    error
}

// Client é uma conexão de jogador com o servidor.
type Client struct {
	conn network.Conn
	name string
	log  zerolog.Logger

	onGameStart func(opponent string)
	onResult    func(move.Result)
	onError     func(text string)

	writeMu sync.Mutex

	mu        sync.Mutex
	key       *secure.SessionKey
	connected bool
	pending   chan moveOutcome
	err       error

	handshake chan error
	starts    chan string
	done      chan struct{}
	closeOnce sync.Once
	started   sync.Once
}

// Option configura um Client.
type Option func(*Client)

// WithOnGameStart registra um callback chamado a cada GAME_START, na goroutine de leitura.
func WithOnGameStart(fn func(opponent string)) Option {
	return func(c *Client) { c.onGameStart = fn }
}

// WithOnResult registra um callback chamado a cada RESULT decifrado.
func WithOnResult(fn func(move.Result)) Option {
	return func(c *Client) { c.onResult = fn }
}

// WithOnError registra um callback chamado a cada ERROR do servidor.
func WithOnError(fn func(text string)) Option {
	return func(c *Client) { c.onError = fn }
}

// New embrulha uma conexão já aberta. Nada é enviado até Connect.
func New(conn network.Conn, name string, opts ...Option) *Client {
	c := &Client{
		conn:      conn,
		name:      name,
		log:       log.With().Str("player", name).Logger(),
		handshake: make(chan error, 1),
		starts:    make(chan string, 8),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial abre uma conexão TCP com addr e conclui o handshake.
func Dial(ctx context.Context, addr, name string, opts ...Option) (*Client, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return connect(ctx, New(network.NewTCPConn(raw), name, opts...))
}

// DialWebsocket faz o mesmo que Dial sobre websocket (url no formato ws://host:port/ws).
func DialWebsocket(ctx context.Context, url, name string, opts ...Option) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return connect(ctx, New(network.NewWebsocketConn(ws), name, opts...))
}

func connect(ctx context.Context, c *Client) (*Client, error) {
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Connect envia HELLO, responde à chave pública com a chave simétrica selada e
// retorna quando o servidor confirma com WAIT_OPPONENT.
func (c *Client) Connect(ctx context.Context) error {
	c.started.Do(func() { go c.readLoop() })

	if err := c.send(protocol.Hello{Player: c.name}); err != nil {
		return err
	}

	select {
	case err := <-c.handshake:
		return err
	case <-c.done:
		// A resposta pode ter chegado logo antes do servidor fechar a conexão.
		select {
		case err := <-c.handshake:
			return err
		default:
		}
		return c.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitGameStart bloqueia até o próximo GAME_START e devolve o nome do adversário.
func (c *Client) AwaitGameStart(ctx context.Context) (string, error) {
	select {
	case opponent := <-c.starts:
		return opponent, nil
	case <-c.done:
		select {
		case opponent := <-c.starts:
			return opponent, nil
		default:
		}
		return "", c.closedErr()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SubmitMove envia a jogada cifrada e bloqueia até o RESULT da rodada.
// Um ERROR do servidor enquanto a jogada espera volta como *ServerError.
func (c *Client) SubmitMove(ctx context.Context, m move.Move) (move.Result, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return move.Result{}, ErrNotConnected
	}
	if c.pending != nil {
		c.mu.Unlock()
		return move.Result{}, ErrMoveInFlight
	}
	pending := make(chan moveOutcome, 1)
	c.pending = pending
	key := c.key
	c.mu.Unlock()

	defer c.clearPending(pending)

	msg, err := message.NewMove(key, m)
	if err != nil {
		return move.Result{}, err
	}
	if err := c.send(msg); err != nil {
		return move.Result{}, err
	}

	select {
	case out := <-pending:
		return out.result, out.err
	case <-c.done:
		select {
		case out := <-pending:
			return out.result, out.err
		default:
		}
		return move.Result{}, c.closedErr()
	case <-ctx.Done():
		return move.Result{}, ctx.Err()
	}
}

// SignalReady avisa que o jogador quer a próxima rodada.
func (c *Client) SignalReady() error {
	return c.send(protocol.Ready{})
}

// Close encerra a conexão e espera a goroutine de leitura terminar.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	c.started.Do(func() { close(c.done) })
	<-c.done
	return err
}

// Done é fechado quando a conexão termina.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) send(msg protocol.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(msg)
}

func (c *Client) clearPending(ch chan moveOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == ch {
		c.pending = nil
	}
}

func (c *Client) takePending() chan moveOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.pending
	c.pending = nil
	return ch
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return errors.Wrap(ErrClosed, c.err.Error())
	}
	return ErrClosed
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		if err := c.handle(msg); err != nil {
			c.log.Warn().Err(err).Str("kind", string(msg.Kind())).Msg("closing connection")
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			c.conn.Close()
			return
		}
	}
}

func (c *Client) handle(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.PublicKey:
		return c.exchangeKey(m)

	case protocol.WaitOpponent:
		c.mu.Lock()
		if c.key == nil {
			c.mu.Unlock()
			return protocol.Violation("WAIT_OPPONENT before key exchange")
		}
		first := !c.connected
		c.connected = true
		c.mu.Unlock()
		if first {
			c.handshake <- nil
		}
		c.log.Debug().Msg("waiting for opponent")

	case protocol.GameStart:
		if c.onGameStart != nil {
			c.onGameStart(m.Opponent)
		}
		select {
		case c.starts <- m.Opponent:
		default:
			c.log.Warn().Str("opponent", m.Opponent).Msg("game start dropped, nobody waiting")
		}

	case protocol.Result:
		c.mu.Lock()
		key := c.key
		c.mu.Unlock()
		if key == nil {
			return protocol.Violation("RESULT before key exchange")
		}
		r, err := message.OpenResult(key, m)
		if err != nil {
			return err
		}
		if c.onResult != nil {
			c.onResult(r)
		}
		if ch := c.takePending(); ch != nil {
			ch <- moveOutcome{result: r}
		}

	case protocol.Error:
		if c.onError != nil {
			c.onError(m.Message)
		}
		serverErr := &ServerError{Message: m.Message}

		c.mu.Lock()
		connected := c.connected
		c.mu.Unlock()
		if !connected {
			select {
			case c.handshake <- serverErr:
			default:
			}
			return nil
		}
		if ch := c.takePending(); ch != nil {
			ch <- moveOutcome{err: serverErr}
		}

	default:
		return protocol.Violation("unexpected %s from server", msg.Kind())
	}
	return nil
}

func (c *Client) exchangeKey(m protocol.PublicKey) error {
	c.mu.Lock()
	already := c.key != nil
	c.mu.Unlock()
	if already {
		return protocol.Violation("second PUBLIC_KEY")
	}

	key, err := secure.NewSessionKey()
	if err != nil {
		return err
	}
	sealed, err := secure.SealSessionKey(key, m.Key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.key = key
	c.mu.Unlock()
	return c.send(protocol.SymmetricKey{Key: sealed})
}
