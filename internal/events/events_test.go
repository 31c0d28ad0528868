package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopDiscards(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(Event{Type: RoomStarted}))
	p.Close()
}

func TestNATSConnectFailure(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "rpsls-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to nats")
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(Event{
		Type:      RoundSettled,
		RoomID:    "room-1",
		Players:   []string{"alice", "bob"},
		Round:     2,
		Winner:    "alice",
		Rationale: "Rock crushes Scissors",
		At:        at,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"round.settled",
		"roomId":"room-1",
		"players":["alice","bob"],
		"round":2,
		"winner":"alice",
		"rationale":"Rock crushes Scissors",
		"at":"2025-01-02T03:04:05Z"
	}`, string(data))
}
