// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Scrape pipeline metrics
	ScrapeSucceeded(source string, fetched, inserted int)
	ScrapeFailed(source string)

	// Delivery metrics
	MessageSent()
	MessageFailed()
	MessageSkipped()

	// Bot metrics
	CommandHandled(command string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Nop is a Recorder that discards every event.
type Nop struct{}

func (Nop) ScrapeSucceeded(string, int, int) {}
func (Nop) ScrapeFailed(string)              {}
func (Nop) MessageSent()                     {}
func (Nop) MessageFailed()                   {}
func (Nop) MessageSkipped()                  {}
func (Nop) CommandHandled(string)            {}
