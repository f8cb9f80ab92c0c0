package complaint

import (
	"fmt"
	"sync"
	"time"

	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/storage"
)

// IDGenerator issues "SP-<unix seconds>" ids that never repeat within the
// process. When two complaints arrive in the same second the later one takes
// the next free second.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// NewIDGenerator seeds the generator with the highest id already stored.
func NewIDGenerator(latest string) *IDGenerator {
	g := &IDGenerator{}
	g.Observe(latest)
	return g
}

// Next returns a fresh id for a complaint created at now.
func (g *IDGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := now.Unix()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return fmt.Sprintf("%s%d", config.ComplaintIDPrefix, n)
}

// Observe records an id issued elsewhere so Next never returns it.
func (g *IDGenerator) Observe(id string) {
	n, ok := storage.ParseComplaintID(id)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.last {
		g.last = n
	}
}
