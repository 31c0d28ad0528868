package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MaxMessageSize limita o tamanho de uma mensagem codificada (uma linha no TCP, um frame no websocket).
const MaxMessageSize = 1024 * 1024

// envelope é o formato no fio: um tipo para roteamento e o payload bruto, decodificado depois.
type envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal serializa a mensagem no envelope JSON. Não inclui o delimitador de linha.
func Marshal(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("protocol: marshal nil message")
	}

	env := envelope{Type: msg.Kind()}
	switch msg.(type) {
	case WaitOpponent, Ready:
	default:
		payload, err := json.Marshal(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "protocol: marshal %s payload", msg.Kind())
		}
		env.Payload = payload
	}

	return json.Marshal(env)
}

// Unmarshal lê o tipo do envelope antes de qualquer outra coisa e só então decodifica o payload
// na variante correspondente. Qualquer falha vira *ProtocolError.
func Unmarshal(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ProtocolError{Reason: "malformed envelope", Err: err}
	}

	switch env.Type {
	case "":
		return nil, Violation("missing message type")
	case KindWaitOpponent:
		return WaitOpponent{}, nil
	case KindReady:
		return Ready{}, nil
	case KindHello:
		return decode[Hello](env)
	case KindPublicKey:
		return decode[PublicKey](env)
	case KindSymmetricKey:
		return decode[SymmetricKey](env)
	case KindMove:
		return decode[Move](env)
	case KindResult:
		return decode[Result](env)
	case KindError:
		return decode[Error](env)
	case KindGameStart:
		return decode[GameStart](env)
	default:
		return nil, Violation("unknown message type %q", env.Type)
	}
}

func decode[T Message](env envelope) (Message, error) {
	var v T
	if len(env.Payload) == 0 {
		return nil, Violation("%s without payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return nil, &ProtocolError{Reason: "malformed " + string(env.Type) + " payload", Err: err}
	}
	return v, nil
}
