package network

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"rpsls/internal/protocol"
)

const (
	// Tempo máximo para aguardar por uma resposta de pong do cliente.
	pongWait = 60 * time.Second

	// Frequência com que enviamos pings para o cliente. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// wsConn transporta uma mensagem do protocolo por frame de texto.
type wsConn struct {
	conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// NewWebsocketConn embrulha uma conexão websocket já promovida e inicia o ping periódico.
func NewWebsocketConn(conn *websocket.Conn) Conn {
	c := &wsConn{conn: conn, done: make(chan struct{})}

	conn.SetReadLimit(protocol.MaxMessageSize)
	// Configura um deadline para a próxima mensagem de pong.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	// O handler atualiza o read deadline, mantendo a conexão viva.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()
	return c
}

func (c *wsConn) ReadMessage() (protocol.Message, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, errors.Wrap(err, "read frame")
		}
		if kind != websocket.TextMessage {
			continue
		}
		return protocol.Unmarshal(data)
	}
}

func (c *wsConn) WriteMessage(msg protocol.Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// pingLoop usa WriteControl, que pode rodar junto com as escritas normais.
func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				// Se o ping falhar, a conexão está morta; fechar destrava a leitura.
				c.Close()
				return
			}
		}
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
