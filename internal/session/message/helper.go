// Package message monta e abre o conteúdo cifrado de MOVE e RESULT.
// É compartilhado entre o servidor e o cliente Go.
package message

import (
	"encoding/json"

	"github.com/pkg/errors"

	"rpsls/internal/game/move"
	"rpsls/internal/protocol"
	"rpsls/internal/secure"
)

// NewMove cifra o nome da jogada ("ROCK") com a chave da sessão.
func NewMove(key *secure.SessionKey, m move.Move) (protocol.Move, error) {
	data, err := key.Encrypt([]byte(m))
	if err != nil {
		return protocol.Move{}, err
	}
	return protocol.Move{Data: data}, nil
}

// OpenMove decifra e valida a jogada. Falha de cifra vem como *secure.Error;
// uma jogada desconhecida vem como *protocol.ProtocolError.
func OpenMove(key *secure.SessionKey, msg protocol.Move) (move.Move, error) {
	plain, err := key.Decrypt(msg.Data)
	if err != nil {
		return "", err
	}

	m, err := move.Parse(string(plain))
	if err != nil {
		return "", &protocol.ProtocolError{Reason: "invalid move", Err: err}
	}
	return m, nil
}

// NewResult serializa o resultado em JSON e cifra com a chave do destinatário.
func NewResult(key *secure.SessionKey, r move.Result) (protocol.Result, error) {
	plain, err := json.Marshal(r)
	if err != nil {
		return protocol.Result{}, errors.Wrap(err, "marshal result")
	}

	data, err := key.Encrypt(plain)
	if err != nil {
		return protocol.Result{}, err
	}
	return protocol.Result{Data: data}, nil
}

// OpenResult desfaz NewResult.
func OpenResult(key *secure.SessionKey, msg protocol.Result) (move.Result, error) {
	plain, err := key.Decrypt(msg.Data)
	if err != nil {
		return move.Result{}, err
	}

	var r move.Result
	if err := json.Unmarshal(plain, &r); err != nil {
		return move.Result{}, &protocol.ProtocolError{Reason: "malformed result", Err: err}
	}
	return r, nil
}
