package session

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"rpsls/internal/events"
	"rpsls/internal/game/move"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
	"rpsls/internal/session/message"
)

const waitTimeout = 2 * time.Second

var errFakeClosed = errors.New("fake conn closed")

// fakeConn é um network.Conn em memória. in alimenta ReadMessage (protocol.Message ou error);
// out recebe tudo o que o servidor escreve.
type fakeConn struct {
	in     chan any
	out    chan protocol.Message
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan any, 16),
		out:    make(chan protocol.Message, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (protocol.Message, error) {
	select {
	case item := <-c.in:
		if err, ok := item.(error); ok {
			return nil, err
		}
		return item.(protocol.Message), nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(msg protocol.Message) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	select {
	case c.out <- msg:
		return nil
	case <-c.closed:
		return errFakeClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (c *fakeConn) expect(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case msg := <-c.out:
		return msg
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a server message")
		return nil
	}
}

func (c *fakeConn) expectClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(waitTimeout):
		t.Fatal("connection was not closed")
	}
}

// recordingPublisher guarda os eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() {}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// testPlayer é um cliente que já concluiu HELLO e a troca de chaves contra um GameHandler.
type testPlayer struct {
	name string
	conn *fakeConn
	key  *secure.SessionKey
}

func newTestHandler(t *testing.T, opts ...Option) (*GameHandler, *Registry) {
	t.Helper()
	keys, err := secure.GenerateKeyPair()
	require.NoError(t, err)
	registry := NewRegistry(opts...)
	return NewGameHandler(registry, keys), registry
}

func serve(t *testing.T, h *GameHandler) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeConn(ctx, conn)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return conn
}

func join(t *testing.T, h *GameHandler, name string) *testPlayer {
	t.Helper()
	conn := serve(t, h)

	conn.in <- protocol.Hello{Player: name}
	pub, ok := conn.expect(t).(protocol.PublicKey)
	require.True(t, ok, "expected PUBLIC_KEY")

	key, err := secure.NewSessionKey()
	require.NoError(t, err)
	sealed, err := secure.SealSessionKey(key, pub.Key)
	require.NoError(t, err)

	conn.in <- protocol.SymmetricKey{Key: sealed}
	require.Equal(t, protocol.WaitOpponent{}, conn.expect(t))

	return &testPlayer{name: name, conn: conn, key: key}
}

func (tp *testPlayer) play(t *testing.T, m move.Move) {
	t.Helper()
	msg, err := message.NewMove(tp.key, m)
	require.NoError(t, err)
	tp.conn.in <- msg
}

func (tp *testPlayer) result(t *testing.T) move.Result {
	t.Helper()
	msg := tp.conn.expect(t)
	res, ok := msg.(protocol.Result)
	require.True(t, ok, "expected RESULT, got %#v", msg)

	r, err := message.OpenResult(tp.key, res)
	require.NoError(t, err)
	return r
}
