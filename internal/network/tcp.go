package network

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"rpsls/internal/protocol"
)

// Tempo para aguardar por uma escrita na conexão.
const writeWait = 10 * time.Second

// tcpConn implementa o enquadramento por linha: cada mensagem é um JSON seguido de '\n'.
type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// NewTCPConn embrulha uma conexão de stream (TCP, net.Pipe) no protocolo de linhas.
func NewTCPConn(conn net.Conn) Conn {
	scanner := bufio.NewScanner(conn)
	// Uma linha maior que o limite encerra a leitura com bufio.ErrTooLong.
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxMessageSize+1)

	return &tcpConn{conn: conn, scanner: scanner}
}

func (c *tcpConn) ReadMessage() (protocol.Message, error) {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue // linhas vazias entre mensagens são toleradas
		}
		return protocol.Unmarshal(line)
	}

	if err := c.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read line")
	}
	return nil, io.EOF
}

func (c *tcpConn) WriteMessage(msg protocol.Message) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	// Um deadline evita que um cliente lento segure quem está escrevendo para ele.
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if _, err := c.conn.Write(data); err != nil {
		return errors.Wrap(err, "write line")
	}
	return nil
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
