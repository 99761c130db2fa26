package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gauntlet/internal/telemetry"
)

// AppendTelemetryEvent persists one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt telemetry.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO telemetry_events (run_id, kind, seed, encounter_index, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		evt.RunID, string(evt.Kind), evt.Seed, evt.EncounterIndex,
		string(payload), evt.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns a run's events in emission order.
func (s *Store) ListTelemetryEvents(ctx context.Context, runID string) ([]telemetry.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, run_id, seed, encounter_index, payload, timestamp
		FROM telemetry_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Event
	for rows.Next() {
		var evt telemetry.Event
		var kind, payload, ts string
		if err := rows.Scan(&kind, &evt.RunID, &evt.Seed, &evt.EncounterIndex, &payload, &ts); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		evt.Kind = telemetry.Kind(kind)
		if err := json.Unmarshal([]byte(payload), &evt.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		if evt.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Sink adapts the store to the telemetry.Sink interface.
type Sink struct {
	store *Store
}

// TelemetrySink returns a sink that appends every emitted event.
func (s *Store) TelemetrySink() *Sink {
	return &Sink{store: s}
}

// Record persists evt.
func (s *Sink) Record(evt telemetry.Event) error {
	return s.store.AppendTelemetryEvent(context.Background(), evt)
}
