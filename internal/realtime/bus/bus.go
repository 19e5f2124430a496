package bus

import (
	"context"

	"github.com/yungbote/lessonforge-backend/internal/realtime"
)

// Message is one cross-instance event envelope: the account partition plus
// the event to broadcast there.
type Message struct {
	Account string         `json:"account"`
	Event   realtime.Event `json:"event"`
}

// Bus fans events published on other process instances into this one's
// hub. Optional; the hub works purely in-process without it.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	StartForwarder(ctx context.Context, onMsg func(m Message)) error
	Close() error
}
