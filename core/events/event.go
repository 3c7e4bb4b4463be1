package events

// Event represents a structured state change emitted by the farm ledger or an
// attached rewarder.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. the reporting
// API, indexers, the test suite).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose caller did not wire an emitter.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder collects emitted events in order. Intended for tests and for the
// reporting layer's in-process subscription.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// ByType returns the recorded events matching the supplied type tag.
func (r *Recorder) ByType(eventType string) []Event {
	if r == nil {
		return nil
	}
	var matched []Event
	for _, evt := range r.Events {
		if evt.EventType() == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}
