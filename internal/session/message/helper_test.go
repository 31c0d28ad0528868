package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpsls/internal/game/move"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
)

type recorder struct {
	sent []protocol.Message
}

func (r *recorder) Send(msg protocol.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestMoveAndResultContent(t *testing.T) {
	key, err := secure.NewSessionKey()
	require.NoError(t, err)

	mv, err := NewMove(key, move.Spock)
	require.NoError(t, err)
	got, err := OpenMove(key, mv)
	require.NoError(t, err)
	assert.Equal(t, move.Spock, got)

	want := move.NewResult(3, "alice", "bob", move.Spock, move.Rock)
	res, err := NewResult(key, want)
	require.NoError(t, err)
	back, err := OpenResult(key, res)
	require.NoError(t, err)
	assert.Equal(t, want, back)
}

func TestOpenMoveRejectsUnknownMove(t *testing.T) {
	key, err := secure.NewSessionKey()
	require.NoError(t, err)

	data, err := key.Encrypt([]byte("DYNAMITE"))
	require.NoError(t, err)

	var protoErr *protocol.ProtocolError
	_, err = OpenMove(key, protocol.Move{Data: data})
	require.ErrorAs(t, err, &protoErr)
	assert.ErrorIs(t, err, move.ErrUnknownMove)

	var cryptoErr *secure.Error
	_, err = OpenMove(key, protocol.Move{Data: "AAAA"})
	require.ErrorAs(t, err, &cryptoErr)
}

func TestSendError(t *testing.T) {
	r := &recorder{}
	require.NoError(t, SendError(r, "name %q already in use", "alice"))
	assert.Equal(t, []protocol.Message{protocol.Error{Message: `name "alice" already in use`}}, r.sent)
}
