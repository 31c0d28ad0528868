package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpsls/internal/cluster"
	"rpsls/internal/session"
)

type fakeRegistry struct {
	stats   session.Stats
	players []session.PlayerInfo
	ended   []string
}

func (f *fakeRegistry) Stats() session.Stats           { return f.stats }
func (f *fakeRegistry) Snapshot() []session.PlayerInfo { return f.players }

func (f *fakeRegistry) EndRoom(id string) bool {
	if id != "room-1" {
		return false
	}
	f.ended = append(f.ended, id)
	return true
}

func newTestServer(t *testing.T, ws http.Handler) (*Server, *cluster.HealthAggregator) {
	srv, health, _ := newTestServerWithRegistry(t, ws)
	return srv, health
}

func newTestServerWithRegistry(t *testing.T, ws http.Handler) (*Server, *cluster.HealthAggregator, *fakeRegistry) {
	t.Helper()
	health := cluster.NewHealthAggregator()
	reg := &fakeRegistry{
		stats: session.Stats{Players: 3, Waiting: 1, Rooms: 1},
		players: []session.PlayerInfo{
			{Name: "alice", State: session.StateInRound, Room: "room-1"},
			{Name: "bob", State: session.StateInRound, Room: "room-1"},
			{Name: "carol", State: session.StateWaitingForOpponent},
		},
	}
	return New("rpsls-server", reg, health, ws), health, reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rpsls-server", body.Service)
	assert.NotContains(t, body.Endpoints, "/ws")
}

func TestStatsAndPlayers(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := get(t, srv, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"players":3,"waiting":1,"rooms":1}`, rec.Body.String())

	rec = get(t, srv, "/players")
	require.Equal(t, http.StatusOK, rec.Code)

	var players []session.PlayerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &players))
	require.Len(t, players, 3)
	assert.Equal(t, "carol", players[2].Name)
	assert.Empty(t, players[2].Room)
}

func TestHealthReflectsChecks(t *testing.T) {
	srv, health := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)

	health.AddCheck("nats", func() error { return errors.New("nats status RECONNECTING") })
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/health").Code)
}

func TestWebsocketRouteAndNotFound(t *testing.T) {
	called := false
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	srv, _ := newTestServer(t, ws)

	get(t, srv, "/ws")
	assert.True(t, called)

	rec := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestEndRoom(t *testing.T) {
	srv, _, reg := newTestServerWithRegistry(t, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/rooms/room-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"room-1"}, reg.ended)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/rooms/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "room_not_found")
}
