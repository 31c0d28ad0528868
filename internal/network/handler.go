package network

import (
	"context"
	"net"

	"rpsls/internal/protocol"
)

// Conn é uma conexão de jogador já enquadrada em mensagens do protocolo,
// independente do transporte (linhas TCP ou frames websocket).
type Conn interface {
	// ReadMessage bloqueia até a próxima mensagem. Uma mensagem que não decodifica
	// retorna *protocol.ProtocolError; qualquer outro erro é do transporte.
	ReadMessage() (protocol.Message, error)

	// WriteMessage não é seguro para uso concorrente: quem envia serializa as escritas.
	WriteMessage(msg protocol.Message) error

	Close() error
	RemoteAddr() net.Addr
}

// ConnHandler é a interface que conecta a camada de rede com a lógica do jogo.
// ServeConn roda na goroutine da conexão e só retorna quando ela terminar.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn Conn)
}

// ConnHandlerFunc adapta uma função comum a ConnHandler.
type ConnHandlerFunc func(ctx context.Context, conn Conn)

func (f ConnHandlerFunc) ServeConn(ctx context.Context, conn Conn) {
	f(ctx, conn)
}
