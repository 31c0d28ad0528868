package client

import "github.com/pkg/errors"

var (
	// ErrClosed é retornado depois que a conexão com o servidor terminou.
	ErrClosed = errors.New("client: connection closed")

	// ErrMoveInFlight indica que já existe uma jogada aguardando resultado.
	ErrMoveInFlight = errors.New("client: a move is already waiting for its result")

	// ErrNotConnected indica uso antes de Connect concluir a troca de chaves.
	ErrNotConnected = errors.New("client: handshake not completed")
)

// ServerError carrega o texto de uma mensagem ERROR do servidor.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server: " + e.Message
}
