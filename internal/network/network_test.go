package network

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpsls/internal/protocol"
)

func TestTCPConnLineFraming(t *testing.T) {
	a, b := net.Pipe()
	server, client := NewTCPConn(a), NewTCPConn(b)
	defer server.Close()
	defer client.Close()

	go func() {
		client.WriteMessage(protocol.Hello{Player: "alice"})
		client.WriteMessage(protocol.Ready{})
	}()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, protocol.Hello{Player: "alice"}, msg)

	msg, err = server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, protocol.Ready{}, msg)
}

func TestTCPConnGarbageIsProtocolError(t *testing.T) {
	a, b := net.Pipe()
	server := NewTCPConn(a)
	defer server.Close()

	go func() {
		b.Write([]byte("\n{\"type\":\"TELEPORT\"}\n"))
		b.Close()
	}()

	var protoErr *protocol.ProtocolError
	_, err := server.ReadMessage()
	require.ErrorAs(t, err, &protoErr)

	_, err = server.ReadMessage()
	assert.ErrorIs(t, err, io.EOF)
}

// echoHandler devolve cada HELLO como GAME_START contra o próprio nome.
func echoHandler() ConnHandler {
	return ConnHandlerFunc(func(ctx context.Context, conn Conn) {
		defer conn.Close()
		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if hello, ok := msg.(protocol.Hello); ok {
				conn.WriteMessage(protocol.GameStart{Opponent: hello.Player})
			}
		}
	})
}

func TestServerTCPAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(echoHandler())
	srv.Start(ctx)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	raw, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	conn := NewTCPConn(raw)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(protocol.Hello{Player: "alice"}))
	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, protocol.GameStart{Opponent: "alice"}, msg)
	assert.Equal(t, 1, srv.Connections())

	cancel()

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// O Hub fecha a conexão ativa, então o cliente vê EOF.
	_, err = conn.ReadMessage()
	assert.Error(t, err)
	srv.Wait()
}

func TestServerWebsocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(echoHandler())
	srv.Start(ctx)

	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn := NewWebsocketConn(ws)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(protocol.Hello{Player: "bob"}))
	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, protocol.GameStart{Opponent: "bob"}, msg)
}

func TestHubRejectsAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	a, b := net.Pipe()
	defer b.Close()
	conn := NewTCPConn(a)

	require.True(t, hub.Add(conn))
	assert.Equal(t, 1, hub.Len())

	cancel()
	<-hub.done

	assert.False(t, hub.Add(NewTCPConn(b)))
	assert.Equal(t, 0, hub.Len())
	hub.Remove(conn)
}
