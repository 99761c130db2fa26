package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gauntlet/internal/run"
	"gauntlet/internal/runstate"
)

// RunSummary is the listing view of a saved run.
type RunSummary struct {
	ID             string
	Seed           int64
	State          runstate.State
	EncounterIndex int
	UpdatedAt      time.Time
}

// SaveRun upserts a run snapshot. The snapshot must carry a run id.
func (s *Store) SaveRun(ctx context.Context, snap run.Snapshot) error {
	if snap.RunID == "" {
		return errors.New("snapshot has no run id")
	}
	history, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	team, err := json.Marshal(snap.Team)
	if err != nil {
		return fmt.Errorf("marshal team: %w", err)
	}
	prevRoles, err := json.Marshal(snap.PrevRoles)
	if err != nil {
		return fmt.Errorf("marshal prev roles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, encounter_index, state, history, team, prev_roles, recruit_counter, chosen_opponent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed,
			encounter_index = excluded.encounter_index,
			state = excluded.state,
			history = excluded.history,
			team = excluded.team,
			prev_roles = excluded.prev_roles,
			recruit_counter = excluded.recruit_counter,
			chosen_opponent = excluded.chosen_opponent,
			updated_at = excluded.updated_at`,
		snap.RunID, snap.Seed, snap.EncounterIndex, string(snap.State),
		string(history), string(team), string(prevRoles),
		snap.RecruitCounter, snap.ChosenOpponent,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", snap.RunID, err)
	}
	return nil
}

// GetRun loads a snapshot by run id.
func (s *Store) GetRun(ctx context.Context, id string) (run.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seed, encounter_index, state, history, team, prev_roles, recruit_counter, chosen_opponent
		FROM runs WHERE id = ?`, id)

	var snap run.Snapshot
	var state, history, team, prevRoles string
	err := row.Scan(&snap.RunID, &snap.Seed, &snap.EncounterIndex, &state,
		&history, &team, &prevRoles, &snap.RecruitCounter, &snap.ChosenOpponent)
	if errors.Is(err, sql.ErrNoRows) {
		return run.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return run.Snapshot{}, fmt.Errorf("get run %s: %w", id, err)
	}

	snap.State = runstate.State(state)
	if err := json.Unmarshal([]byte(history), &snap.History); err != nil {
		return run.Snapshot{}, fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(team), &snap.Team); err != nil {
		return run.Snapshot{}, fmt.Errorf("unmarshal team: %w", err)
	}
	if err := json.Unmarshal([]byte(prevRoles), &snap.PrevRoles); err != nil {
		return run.Snapshot{}, fmt.Errorf("unmarshal prev roles: %w", err)
	}
	return snap, nil
}

// ListRuns returns saved runs, most recently updated first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, state, encounter_index, updated_at
		FROM runs ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var state, updated string
		if err := rows.Scan(&r.ID, &r.Seed, &state, &r.EncounterIndex, &updated); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.State = runstate.State(state)
		if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
