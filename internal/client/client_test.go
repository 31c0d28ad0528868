package client_test

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpsls/internal/client"
	"rpsls/internal/game/move"
	"rpsls/internal/network"
	"rpsls/internal/secure"
	"rpsls/internal/session"
)

type testServer struct {
	addr     string
	wsURL    string
	registry *session.Registry
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	keys, err := secure.GenerateKeyPair()
	require.NoError(t, err)
	registry := session.NewRegistry()
	srv := network.NewServer(session.NewGameHandler(registry, keys))

	ctx, cancel := context.WithCancel(context.Background())
	srv.Start(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	httpSrv := httptest.NewServer(srv)
	t.Cleanup(func() {
		cancel()
		httpSrv.Close()
		srv.Wait()
	})

	return &testServer{
		addr:     ln.Addr().String(),
		wsURL:    "ws" + strings.TrimPrefix(httpSrv.URL, "http"),
		registry: registry,
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// playRound joga uma rodada com os dois clientes em paralelo.
func playRound(t *testing.T, ctx context.Context, a, b *client.Client, ma, mb move.Move) (move.Result, move.Result) {
	t.Helper()

	var wg sync.WaitGroup
	var ra, rb move.Result
	var errA, errB error
	wg.Add(2)
	go func() { defer wg.Done(); ra, errA = a.SubmitMove(ctx, ma) }()
	go func() { defer wg.Done(); rb, errB = b.SubmitMove(ctx, mb) }()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	return ra, rb
}

func TestTwoPlayersOverTCP(t *testing.T) {
	srv := startServer(t)
	ctx := testContext(t)

	var mu sync.Mutex
	var aliceResults []move.Result
	alice, err := client.Dial(ctx, srv.addr, "alice", client.WithOnResult(func(r move.Result) {
		mu.Lock()
		aliceResults = append(aliceResults, r)
		mu.Unlock()
	}))
	require.NoError(t, err)
	defer alice.Close()

	bob, err := client.Dial(ctx, srv.addr, "bob")
	require.NoError(t, err)
	defer bob.Close()

	opponent, err := alice.AwaitGameStart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", opponent)
	opponent, err = bob.AwaitGameStart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", opponent)

	ra, rb := playRound(t, ctx, alice, bob, move.Rock, move.Scissors)
	assert.Equal(t, "alice", ra.Winner)
	assert.Equal(t, "alice", rb.Winner)
	assert.Equal(t, "Rock crushes Scissors", ra.Description)
	assert.True(t, ra.Won("alice"))

	require.NoError(t, alice.SignalReady())
	require.NoError(t, bob.SignalReady())
	_, err = alice.AwaitGameStart(ctx)
	require.NoError(t, err)
	_, err = bob.AwaitGameStart(ctx)
	require.NoError(t, err)

	ra, rb = playRound(t, ctx, alice, bob, move.Lizard, move.Lizard)
	assert.True(t, ra.Draw)
	assert.True(t, rb.Draw)
	assert.Equal(t, "Draw - both players chose Lizard", ra.Description)
	assert.Equal(t, 2, ra.Round)

	mu.Lock()
	assert.Len(t, aliceResults, 2)
	mu.Unlock()
}

func TestTwoPlayersOverWebsocket(t *testing.T) {
	srv := startServer(t)
	ctx := testContext(t)

	alice, err := client.DialWebsocket(ctx, srv.wsURL, "alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, err := client.DialWebsocket(ctx, srv.wsURL, "bob")
	require.NoError(t, err)
	defer bob.Close()

	_, err = alice.AwaitGameStart(ctx)
	require.NoError(t, err)
	_, err = bob.AwaitGameStart(ctx)
	require.NoError(t, err)

	ra, rb := playRound(t, ctx, alice, bob, move.Paper, move.Spock)
	assert.Equal(t, "alice", ra.Winner)
	assert.Equal(t, "Paper disproves Spock", rb.Description)
}

func TestDuplicateNameIsRefused(t *testing.T) {
	srv := startServer(t)
	ctx := testContext(t)

	alice, err := client.Dial(ctx, srv.addr, "alice")
	require.NoError(t, err)
	defer alice.Close()

	_, err = client.Dial(ctx, srv.addr, "alice")
	var serverErr *client.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, serverErr.Message, "name already in use")
}

func TestOpponentLeavesMidRound(t *testing.T) {
	srv := startServer(t)
	ctx := testContext(t)

	alice, err := client.Dial(ctx, srv.addr, "alice")
	require.NoError(t, err)
	bob, err := client.Dial(ctx, srv.addr, "bob")
	require.NoError(t, err)
	defer bob.Close()

	_, err = alice.AwaitGameStart(ctx)
	require.NoError(t, err)
	_, err = bob.AwaitGameStart(ctx)
	require.NoError(t, err)

	aliceDone := make(chan error, 1)
	go func() {
		_, err := alice.SubmitMove(ctx, move.Rock)
		aliceDone <- err
	}()
	require.Eventually(t, func() bool {
		return srv.registry.Lookup("alice").Room().Phase() == session.RoundOneMoveIn
	}, 2*time.Second, 10*time.Millisecond)

	alice.Close()
	assert.ErrorIs(t, <-aliceDone, client.ErrClosed)

	require.Eventually(t, func() bool {
		return srv.registry.Stats() == session.Stats{Players: 1, Waiting: 1, Rooms: 0}
	}, 2*time.Second, 10*time.Millisecond)

	// A jogada de bob não trava: a sala acabou e o servidor responde com ERROR.
	_, err = bob.SubmitMove(ctx, move.Scissors)
	var serverErr *client.ServerError
	require.ErrorAs(t, err, &serverErr)
}

func TestSubmitMoveBeforeConnect(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()

	c := client.New(network.NewTCPConn(a), "alice")
	_, err := c.SubmitMove(context.Background(), move.Rock)
	assert.True(t, errors.Is(err, client.ErrNotConnected))
	c.Close()
}
