package message

import (
	"fmt"

	"rpsls/internal/protocol"
)

// MessageSender define a interface para qualquer tipo que pode receber uma mensagem.
// Isso nos permite desacoplar o pacote `message` de implementações concretas como `PlayerSession`.
type MessageSender interface {
	Send(msg protocol.Message) error
}

// SendError envia apenas uma mensagem de erro para o cliente.
func SendError(sender MessageSender, format string, args ...any) error {
	return sender.Send(protocol.Error{Message: fmt.Sprintf(format, args...)})
}
