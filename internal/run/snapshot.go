package run

import (
	"fmt"

	"gauntlet/internal/catalog"
	"gauntlet/internal/runstate"
	"gauntlet/internal/telemetry"
)

// Snapshot is everything the save layer needs to restore a run verbatim.
// Replaying choice generation and battles from a restored snapshot
// reproduces identical previews and outcomes, because every derivation
// starts from the seed.
type Snapshot struct {
	RunID          string                `json:"run_id"`
	Seed           int64                 `json:"seed"`
	EncounterIndex int                   `json:"encounter_index"`
	State          runstate.State        `json:"state"`
	History        []runstate.Transition `json:"history"`
	Team           []Member              `json:"team"`
	PrevRoles      []string              `json:"prev_roles,omitempty"`
	RecruitCounter int                   `json:"recruit_counter"`
	ChosenOpponent string                `json:"chosen_opponent,omitempty"`
}

// Snapshot captures the run's persistent state. In-flight battle progress
// is deliberately not captured: a battle is rebuilt deterministically from
// the seed and replayed from its command log by the caller.
func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		RunID:          r.id,
		Seed:           r.seed,
		EncounterIndex: r.encounterIndex,
		State:          r.machine.Current(),
		History:        r.machine.History(),
		Team:           r.Team(),
		PrevRoles:      append([]string(nil), r.prevRoles...),
		RecruitCounter: r.recruitCounter,
		ChosenOpponent: r.chosenOpponent,
	}
}

// Restore rebuilds a run from a snapshot. When the snapshot was taken in
// the battle phase, the battle is reconstructed at its starting state.
func Restore(cat *catalog.Catalog, snap Snapshot, emitter *telemetry.Emitter) (*Run, error) {
	r := New(cat, emitter)
	if err := r.machine.Restore(snap.State, snap.History); err != nil {
		return nil, err
	}
	r.id = snap.RunID
	r.seed = snap.Seed
	r.encounterIndex = snap.EncounterIndex
	r.team = append([]Member(nil), snap.Team...)
	r.prevRoles = append([]string(nil), snap.PrevRoles...)
	r.recruitCounter = snap.RecruitCounter
	r.chosenOpponent = snap.ChosenOpponent

	if snap.State == runstate.StateBattle {
		battle, _, err := r.buildBattle()
		if err != nil {
			return nil, fmt.Errorf("rebuild battle: %w", err)
		}
		r.battle = battle
	}
	return r, nil
}
