// Package telemetry records structured events from the run core so an
// external sink can reconstruct every decision (seed, encounter index,
// chosen ids, degradation) after the fact.
package telemetry

import "time"

// Kind identifies what an event describes.
type Kind string

const (
	KindChoiceGenerated Kind = "choice.generated"
	KindChoiceDegraded  Kind = "choice.degraded"
	KindStateTransition Kind = "state.transition"
	KindBattleStart     Kind = "battle.start"
	KindBattleEnd       Kind = "battle.end"
)

// Event is one structured telemetry record.
type Event struct {
	Kind           Kind           `json:"kind"`
	RunID          string         `json:"run_id,omitempty"`
	Seed           int64          `json:"seed"`
	EncounterIndex int            `json:"encounter_index"`
	Payload        map[string]any `json:"payload,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Sink receives emitted events. Implementations own their error handling
// strategy; the core treats emission as best-effort.
type Sink interface {
	Record(Event) error
}

// Emitter stamps and forwards events to a sink.
type Emitter struct {
	sink  Sink
	clock func() time.Time
}

// NewEmitter creates an emitter. A nil sink yields a no-op emitter.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink, clock: time.Now}
}

// NewEmitterWithClock creates an emitter with an injected clock for
// reproducible timestamps in tests.
func NewEmitterWithClock(sink Sink, clock func() time.Time) *Emitter {
	return &Emitter{sink: sink, clock: clock}
}

// Emit stamps evt and hands it to the sink. It is a no-op when the
// emitter or its sink is nil.
func (e *Emitter) Emit(evt Event) error {
	if e == nil || e.sink == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.clock().UTC()
	}
	return e.sink.Record(evt)
}

// MemorySink collects events in memory, for tests and inspection.
type MemorySink struct {
	Events []Event
}

// Record appends evt.
func (s *MemorySink) Record(evt Event) error {
	s.Events = append(s.Events, evt)
	return nil
}

// ByKind returns the recorded events of one kind, in emission order.
func (s *MemorySink) ByKind(k Kind) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
