// Package realtime is the live update hub: best-effort push notification
// of content-change events to long-lived connections, partitioned by
// account.
package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdDisconnect
	cmdBroadcast
)

type command struct {
	kind    commandKind
	account string
	conn    Conn
	event   Event
}

// Hub owns the per-account connection sets from a single goroutine; every
// operation enters through the command channel, so connect/disconnect/
// broadcast ordering on an account is predictable. Publish is safe from
// any goroutine and never surfaces failures to the caller.
//
// Repeated publishes are deliberately not coalesced: each Publish call
// schedules its own broadcast, even for identical account/event pairs in
// quick succession.
type Hub struct {
	log      *logger.Logger
	commands chan command
	done     chan struct{}
	conns    map[string]map[uuid.UUID]Conn
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "LessonEventHub"),
		commands: make(chan command, 256),
		done:     make(chan struct{}),
		conns:    make(map[string]map[uuid.UUID]Conn),
	}
}

// Run drains the command channel until ctx is done. Call once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd command) {
	switch cmd.kind {
	case cmdConnect:
		set, ok := h.conns[cmd.account]
		if !ok {
			set = make(map[uuid.UUID]Conn)
			h.conns[cmd.account] = set
		}
		set[cmd.conn.ID()] = cmd.conn
		h.log.Debug("Connection registered", "account", cmd.account, "connID", cmd.conn.ID())
	case cmdDisconnect:
		if set, ok := h.conns[cmd.account]; ok {
			delete(set, cmd.conn.ID())
			if len(set) == 0 {
				delete(h.conns, cmd.account)
			}
		}
		h.log.Debug("Connection removed", "account", cmd.account, "connID", cmd.conn.ID())
	case cmdBroadcast:
		h.broadcast(cmd.account, cmd.event)
	}
}

func (h *Hub) broadcast(account string, event Event) {
	set, ok := h.conns[account]
	if !ok || len(set) == 0 {
		return
	}
	targets := make([]Conn, 0, len(set))
	for _, conn := range set {
		targets = append(targets, conn)
	}
	var stale []uuid.UUID
	for _, conn := range targets {
		if err := conn.Send(event); err != nil {
			h.log.Warn("Dropping stale connection after failed send", "connID", conn.ID(), "error", err)
			stale = append(stale, conn.ID())
		}
	}
	// The failing connection's owning account is not re-derived here, so
	// it is swept from every account set.
	for _, id := range stale {
		for acct, conns := range h.conns {
			delete(conns, id)
			if len(conns) == 0 {
				delete(h.conns, acct)
			}
		}
	}
}

func (h *Hub) enqueue(cmd command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

// Connect registers a connection under an account.
func (h *Hub) Connect(account string, conn Conn) {
	h.enqueue(command{kind: cmdConnect, account: account, conn: conn})
}

// Disconnect removes a connection from an account's set.
func (h *Hub) Disconnect(account string, conn Conn) {
	h.enqueue(command{kind: cmdDisconnect, account: account, conn: conn})
}

// Publish schedules a broadcast of event to every connection currently
// registered for account, after delay (zero means immediately).
// Fire-and-forget: delivery is at-most-once per connection.
func (h *Hub) Publish(account string, event Event, delay time.Duration) {
	if delay <= 0 {
		h.enqueue(command{kind: cmdBroadcast, account: account, event: event})
		return
	}
	time.AfterFunc(delay, func() {
		h.enqueue(command{kind: cmdBroadcast, account: account, event: event})
	})
}
