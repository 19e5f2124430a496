package app

import (
	"context"
	"time"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/realtime"
	"github.com/yungbote/lessonforge-backend/internal/realtime/bus"
)

// busPublisher routes events through the inter-replica bus instead of the
// local hub; every replica, this one included, delivers them to its own
// streams via the forwarder. The publish delay elapses before the bus
// send, so receipt means "deliver now".
type busPublisher struct {
	log *logger.Logger
	bus bus.Bus
}

// newEventPublisher picks the emit path: straight to the hub when running
// single-replica, through the bus otherwise.
func newEventPublisher(log *logger.Logger, hub *realtime.Hub, b bus.Bus) realtime.Publisher {
	if b == nil {
		return hub
	}
	return &busPublisher{log: log.With("component", "BusPublisher"), bus: b}
}

func (p *busPublisher) Publish(account string, event realtime.Event, delay time.Duration) {
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.bus.Publish(ctx, bus.Message{Account: account, Event: event}); err != nil {
			p.log.Warn("Failed to publish event to bus", "error", err, "type", event.Type)
		}
	}
	if delay <= 0 {
		go send()
		return
	}
	time.AfterFunc(delay, send)
}
