package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	hub := NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receiveEvent(t *testing.T, conn *StreamConn, timeout time.Duration) Event {
	t.Helper()
	select {
	case event := <-conn.Events():
		return event
	case <-time.After(timeout):
		t.Fatalf("no event within %v", timeout)
		return Event{}
	}
}

func TestHubDeliversToAccount(t *testing.T) {
	hub := newRunningHub(t)
	conn := NewStreamConn()
	hub.Connect("alice_at_example_dot_com", conn)

	hub.Publish("alice_at_example_dot_com", LessonEvent(EventLessonCreated, "123456"), 0)

	event := receiveEvent(t, conn, 2*time.Second)
	if event.Type != EventLessonCreated || event.LessonID != "123456" {
		t.Fatalf("event = %+v", event)
	}
}

func TestHubIsolatesAccounts(t *testing.T) {
	hub := newRunningHub(t)
	alice := NewStreamConn()
	bob := NewStreamConn()
	hub.Connect("alice", alice)
	hub.Connect("bob", bob)

	hub.Publish("alice", LessonEvent(EventLessonUpdated, "111111"), 0)

	receiveEvent(t, alice, 2*time.Second)
	select {
	case event := <-bob.Events():
		t.Fatalf("bob received alice's event: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPrunesFailedConns(t *testing.T) {
	hub := newRunningHub(t)
	dead := NewStreamConn()
	dead.Close()
	live := NewStreamConn()
	hub.Connect("alice", dead)
	hub.Connect("alice", live)

	hub.Publish("alice", LessonEvent(EventLessonDeleted, "222222"), 0)
	receiveEvent(t, live, 2*time.Second)

	// The dead connection is gone; further publishes still deliver.
	hub.Publish("alice", LessonEvent(EventLessonUpdated, "222222"), 0)
	event := receiveEvent(t, live, 2*time.Second)
	if event.Type != EventLessonUpdated {
		t.Fatalf("event = %+v", event)
	}
}

func TestDelayedPublishesAreNotCoalesced(t *testing.T) {
	hub := newRunningHub(t)
	conn := NewStreamConn()
	hub.Connect("alice", conn)

	event := SectionEvent(EventSectionUpdated, "333333", "concepts")
	hub.Publish("alice", event, 20*time.Millisecond)
	hub.Publish("alice", event, 20*time.Millisecond)

	receiveEvent(t, conn, 2*time.Second)
	receiveEvent(t, conn, 2*time.Second)
}

func TestStreamConnSendFailures(t *testing.T) {
	conn := NewStreamConn()
	for i := 0; i < outboundBuffer; i++ {
		if err := conn.Send(Event{Type: EventLessonUpdated}); err != nil {
			t.Fatalf("send %d into empty buffer failed: %v", i, err)
		}
	}
	if err := conn.Send(Event{Type: EventLessonUpdated}); err == nil {
		t.Fatalf("send into a full buffer should fail")
	}
	conn.Close()
	if err := conn.Send(Event{Type: EventLessonUpdated}); err == nil {
		t.Fatalf("send on a closed connection should fail")
	}
}
