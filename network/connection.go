// network/connection.go
package network

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// DefaultMaxMessageSize bounds one inbound frame when no limit is given.
	DefaultMaxMessageSize = 1 << 20
)

var (
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection is a framed client socket as the server loop sees it.
type Connection interface {
	ID() string
	Send(packet *Packet) error
	ReadPacket() (*Packet, error)
	RemoteAddr() net.Addr
	Close() error
}

var _ Connection = (*WSConnection)(nil)

// WSConnection frames packets as JSON text messages. Send never blocks: frames
// are queued and flushed by WritePump.
type WSConnection struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	heartbeat time.Duration
}

// NewWSConnection wraps conn. Frames larger than maxMessageSize close the
// connection; a non-positive value selects DefaultMaxMessageSize.
func NewWSConnection(id string, conn *websocket.Conn, sendBuffer int, maxMessageSize int64) *WSConnection {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	conn.SetReadLimit(maxMessageSize)
	return &WSConnection{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *WSConnection) ID() string {
	return c.id
}

func (c *WSConnection) Send(packet *Packet) error {
	frame, err := packet.Encode()
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// ReadPacket blocks for the next frame. Undecodable frames are reported with
// ErrMalformedPacket and leave the connection usable.
func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodePacket(data)
}

// SetHeartbeat expects a pong within twice the interval; WritePump pings at
// the interval.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	if interval <= 0 {
		return
	}
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})
}

// WritePump drains the send queue until the connection is closed.
func (c *WSConnection) WritePump() {
	var tick <-chan time.Time
	if c.heartbeat > 0 {
		ticker := time.NewTicker(c.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.Close()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-tick:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *WSConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
