package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher is the event-emitting side of the hub. Satisfied by Hub and
// by fan-out wrappers that mirror events onto an inter-replica bus.
type Publisher interface {
	Publish(account string, event Event, delay time.Duration)
}

// Conn is one live subscriber connection. Send must not block; a send
// failure marks the connection stale and the hub prunes it.
type Conn interface {
	ID() uuid.UUID
	Send(event Event) error
}

const outboundBuffer = 16

// StreamConn adapts a long-lived HTTP stream (SSE) to the hub: events are
// queued on a buffered channel drained by the serving handler.
type StreamConn struct {
	id        uuid.UUID
	outbound  chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamConn() *StreamConn {
	return &StreamConn{
		id:       uuid.New(),
		outbound: make(chan Event, outboundBuffer),
		done:     make(chan struct{}),
	}
}

func (c *StreamConn) ID() uuid.UUID { return c.id }

// Events is drained by the HTTP handler writing the stream.
func (c *StreamConn) Events() <-chan Event { return c.outbound }

// Done closes when the connection is torn down.
func (c *StreamConn) Done() <-chan struct{} { return c.done }

func (c *StreamConn) Send(event Event) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.id)
	default:
	}
	select {
	case c.outbound <- event:
		return nil
	default:
		return fmt.Errorf("connection %s outbound buffer full", c.id)
	}
}

func (c *StreamConn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
