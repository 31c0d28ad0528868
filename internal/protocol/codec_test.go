package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalEnvelope(t *testing.T) {
	data, err := Marshal(Hello{Player: "alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"HELLO","payload":{"player":"alice"}}`, string(data))

	data, err = Marshal(Ready{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"READY"}`, string(data))

	_, err = Marshal(nil)
	require.Error(t, err)
}

func TestRoundTripEveryKind(t *testing.T) {
	msgs := []Message{
		Hello{Player: "alice"},
		PublicKey{Key: "cHVi"},
		SymmetricKey{Key: "c3lt"},
		Move{Data: "bW92ZQ=="},
		Result{Data: "cmVzdWx0"},
		Error{Message: "boom"},
		GameStart{Opponent: "bob"},
		WaitOpponent{},
		Ready{},
	}

	for _, msg := range msgs {
		data, err := Marshal(msg)
		require.NoError(t, err)

		got, err := Unmarshal(data)
		require.NoError(t, err, string(data))
		assert.Equal(t, msg, got)
	}
}

func TestUnmarshalRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"not json":        `HELLO alice`,
		"missing type":    `{"payload":{"player":"alice"}}`,
		"unknown type":    `{"type":"SURRENDER"}`,
		"missing payload": `{"type":"MOVE"}`,
		"wrong payload":   `{"type":"HELLO","payload":{"player":42}}`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			var protoErr *ProtocolError
			msg, err := Unmarshal([]byte(input))
			assert.Nil(t, msg)
			require.ErrorAs(t, err, &protoErr)
		})
	}
}

func TestFromClient(t *testing.T) {
	assert.True(t, FromClient(KindHello))
	assert.True(t, FromClient(KindMove))
	assert.False(t, FromClient(KindResult))
	assert.False(t, FromClient(KindGameStart))
}
