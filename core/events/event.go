package events

// Payload is the structured body of an emitted event.
type Payload struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
	Event() *Payload
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, metrics,
// indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default wherever a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
