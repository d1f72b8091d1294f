package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ScrapeRuns       uint64
	ScrapeFailures   uint64
	ListingsFetched  uint64
	ListingsInserted uint64
	MessagesSent     uint64
	MessagesFailed   uint64
	MessagesSkipped  uint64
	Commands         map[string]uint64
	SourceFailures   map[string]uint64
}

// InMemoryRecorder stores metrics in memory. It backs the stats endpoint
// and is the Recorder used in tests.
type InMemoryRecorder struct {
	scrapeRuns       uint64
	scrapeFailures   uint64
	listingsFetched  uint64
	listingsInserted uint64
	messagesSent     uint64
	messagesFailed   uint64
	messagesSkipped  uint64

	mu             sync.Mutex
	commands       map[string]uint64
	sourceFailures map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		commands:       make(map[string]uint64),
		sourceFailures: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	s := Snapshot{
		ScrapeRuns:       atomic.LoadUint64(&m.scrapeRuns),
		ScrapeFailures:   atomic.LoadUint64(&m.scrapeFailures),
		ListingsFetched:  atomic.LoadUint64(&m.listingsFetched),
		ListingsInserted: atomic.LoadUint64(&m.listingsInserted),
		MessagesSent:     atomic.LoadUint64(&m.messagesSent),
		MessagesFailed:   atomic.LoadUint64(&m.messagesFailed),
		MessagesSkipped:  atomic.LoadUint64(&m.messagesSkipped),
		Commands:         make(map[string]uint64),
		SourceFailures:   make(map[string]uint64),
	}
	m.mu.Lock()
	for k, v := range m.commands {
		s.Commands[k] = v
	}
	for k, v := range m.sourceFailures {
		s.SourceFailures[k] = v
	}
	m.mu.Unlock()
	return s
}

// ScrapeSucceeded records one completed source fetch.
func (m *InMemoryRecorder) ScrapeSucceeded(source string, fetched, inserted int) {
	atomic.AddUint64(&m.scrapeRuns, 1)
	atomic.AddUint64(&m.listingsFetched, uint64(fetched))
	atomic.AddUint64(&m.listingsInserted, uint64(inserted))
}

// ScrapeFailed records one failed source fetch.
func (m *InMemoryRecorder) ScrapeFailed(source string) {
	atomic.AddUint64(&m.scrapeFailures, 1)
	m.mu.Lock()
	m.sourceFailures[source]++
	m.mu.Unlock()
}

// MessageSent increments the delivered message counter.
func (m *InMemoryRecorder) MessageSent() {
	atomic.AddUint64(&m.messagesSent, 1)
}

// MessageFailed increments the failed message counter.
func (m *InMemoryRecorder) MessageFailed() {
	atomic.AddUint64(&m.messagesFailed, 1)
}

// MessageSkipped increments the skipped recipient counter.
func (m *InMemoryRecorder) MessageSkipped() {
	atomic.AddUint64(&m.messagesSkipped, 1)
}

// CommandHandled records one handled bot command.
func (m *InMemoryRecorder) CommandHandled(command string) {
	m.mu.Lock()
	m.commands[command]++
	m.mu.Unlock()
}
