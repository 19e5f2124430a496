package gateway

import (
	"sync"
	"time"
)

const DefaultDebounceDelay = 1 * time.Second

// DebounceGate coalesces rapid-fire duplicate calls: every call registers
// a fresh monotonic token for its fingerprint, sleeps the delay, and only
// the call whose token is still current executes. The sleep suspends the
// calling goroutine only.
type DebounceGate struct {
	delay  time.Duration
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

func NewDebounceGate(delay time.Duration) *DebounceGate {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &DebounceGate{
		delay:  delay,
		latest: make(map[string]uint64),
	}
}

// Run reports whether this call won the debounce window for key.
func (g *DebounceGate) Run(key string) bool {
	g.mu.Lock()
	g.seq++
	token := g.seq
	g.latest[key] = token
	g.mu.Unlock()

	time.Sleep(g.delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == token
}
