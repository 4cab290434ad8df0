package sway

import (
	"fmt"
	"net"
)

// Conn is a subscription connection to the sway IPC socket.
type Conn struct {
	conn net.Conn
}

// Dial connects to the compositor socket at socketPath.
func Dial(socketPath string) (*Conn, error) {
	c, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sway socket %s: %w", socketPath, err)
	}
	return NewConn(c), nil
}

// NewConn wraps an already established connection.
func NewConn(c net.Conn) *Conn {
	return &Conn{conn: c}
}

// Subscribe sends the subscribe command and consumes the acknowledgement frame.
func (c *Conn) Subscribe(topic string) error {
	if _, err := c.conn.Write(EncodeSubscribe(topic)); err != nil {
		return fmt.Errorf("failed to send subscribe command: %w", err)
	}

	ack, err := DecodeNext(c.conn)
	if err != nil {
		return fmt.Errorf("failed to read subscribe reply: %w", err)
	}

	return checkAck(ack)
}

// Next blocks until the next frame arrives and returns its payload.
func (c *Conn) Next() ([]byte, error) {
	return DecodeNext(c.conn)
}

// Close closes the socket. A blocked Next returns with an error.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// checkAck accepts every reply, including {"success":false}. sway only
// rejects unknown topics and the watcher subscribes to a fixed one.
func checkAck(_ []byte) error {
	return nil
}
