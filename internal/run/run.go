// Package run sequences a whole roguelike run: choice generation, phase
// gating and battle resolution. The controller holds only run-scoped
// bookkeeping (seed, team, encounter index, chosen opponent); all game
// logic lives in the packages it delegates to.
package run

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"gauntlet/internal/catalog"
	"gauntlet/internal/choice"
	"gauntlet/internal/combat"
	"gauntlet/internal/rng"
	"gauntlet/internal/runstate"
	"gauntlet/internal/telemetry"
)

// ErrScriptExhausted reports a battle script that ran out of commands
// before the battle ended. The battle stays in progress and can be
// continued with another ExecuteBattle call.
var ErrScriptExhausted = errors.New("battle script exhausted before termination")

// ErrNoChoices reports an opponent selection before any generation.
var ErrNoChoices = errors.New("no opponent choices generated")

// Member is one persistent player unit. Its stats are the authoritative
// copy; battle units are derived from it at encounter start and discarded
// at battle end.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	HP    int    `json:"hp"`
	Atk   int    `json:"atk"`
	Def   int    `json:"def"`
	Speed int    `json:"speed"`
}

// MemberFromTemplate builds a member from catalog data with a caller-chosen id.
func MemberFromTemplate(id string, tpl catalog.UnitTemplate) Member {
	return Member{ID: id, Name: tpl.Name, Role: tpl.Role, HP: tpl.HP, Atk: tpl.Atk, Def: tpl.Def, Speed: tpl.Speed}
}

// Run is one run in progress. It is a plain value with a single owner;
// multiple runs can coexist in one process.
type Run struct {
	id      string
	seed    int64
	cat     *catalog.Catalog
	machine *runstate.Machine
	emitter *telemetry.Emitter

	team           []Member
	encounterIndex int
	lastChoices    *choice.Result
	prevRoles      []string
	chosenOpponent string
	recruitCounter int

	battle *combat.Battle
}

// New creates an idle controller over a catalog. emitter may be nil.
func New(cat *catalog.Catalog, emitter *telemetry.Emitter) *Run {
	return &Run{cat: cat, machine: runstate.New(), emitter: emitter}
}

// ID returns the storage identity of this run. It is assigned at Start
// and has no influence on simulation outcomes.
func (r *Run) ID() string { return r.id }

// Seed returns the immutable run seed.
func (r *Run) Seed() int64 { return r.seed }

// EncounterIndex returns the current encounter ordinal.
func (r *Run) EncounterIndex() int { return r.encounterIndex }

// State returns the current run phase.
func (r *Run) State() runstate.State { return r.machine.Current() }

// History returns the recorded phase transitions.
func (r *Run) History() []runstate.Transition { return r.machine.History() }

// Team returns a copy of the current player team.
func (r *Run) Team() []Member {
	out := make([]Member, len(r.team))
	copy(out, r.team)
	return out
}

// LastChoices returns the most recently generated choice set, or nil.
func (r *Run) LastChoices() *choice.Result { return r.lastChoices }

// Battle returns the in-flight battle, or nil outside the battle phase.
func (r *Run) Battle() *combat.Battle { return r.battle }

// root derives a fresh root stream from the run seed. Every derivation
// starts here so encounter N's previews and battle never depend on how
// many other derivations happened first.
func (r *Run) root() *rng.Stream {
	return rng.New(r.seed)
}

// transition commits one state-machine edge and reports it to telemetry.
func (r *Run) transition(to runstate.State) error {
	from := r.machine.Current()
	if err := r.machine.TransitionTo(to); err != nil {
		return err
	}
	_ = r.emitter.Emit(telemetry.Event{
		Kind:           telemetry.KindStateTransition,
		RunID:          r.id,
		Seed:           r.seed,
		EncounterIndex: r.encounterIndex,
		Payload:        map[string]any{"from": string(from), "to": string(to)},
	})
	return nil
}

// Start begins a new run with the given starter team and seed.
func (r *Run) Start(team []Member, seed int64) error {
	if len(team) == 0 {
		return errors.New("starter team must not be empty")
	}
	r.machine.Reset()
	r.id = uuid.NewString()
	r.seed = seed
	r.team = make([]Member, len(team))
	copy(r.team, team)
	r.encounterIndex = 0
	r.lastChoices = nil
	r.prevRoles = nil
	r.chosenOpponent = ""
	r.recruitCounter = 0
	r.battle = nil
	if err := r.transition(runstate.StateStarterSelect); err != nil {
		return err
	}
	return r.transition(runstate.StateOpponentSelect)
}

// GenerateChoices derives the opponent previews for the current encounter.
// It may be called repeatedly while selecting; the result is identical
// each time by construction.
func (r *Run) GenerateChoices() (choice.Result, error) {
	if cur := r.machine.Current(); cur != runstate.StateOpponentSelect {
		return choice.Result{}, &runstate.InvalidTransitionError{From: cur, Target: runstate.StateOpponentSelect}
	}
	res, err := choice.Generate(r.root(), r.encounterIndex, r.cat, r.prevRoles)
	if err != nil {
		return choice.Result{}, err
	}
	r.lastChoices = &res

	ids := make([]string, len(res.Previews))
	for i, p := range res.Previews {
		ids[i] = p.Spec.ID
	}
	_ = r.emitter.Emit(telemetry.Event{
		Kind:           telemetry.KindChoiceGenerated,
		RunID:          r.id,
		Seed:           r.seed,
		EncounterIndex: r.encounterIndex,
		Payload:        map[string]any{"offered": ids, "degraded": res.Degraded},
	})
	if res.Degraded {
		_ = r.emitter.Emit(telemetry.Event{
			Kind:           telemetry.KindChoiceDegraded,
			RunID:          r.id,
			Seed:           r.seed,
			EncounterIndex: r.encounterIndex,
			Payload:        map[string]any{"offered": ids, "dropped_rules": res.DroppedRules},
		})
	}
	return res, nil
}

// SelectOpponent commits one of the previously generated previews and
// moves the run to team preparation.
func (r *Run) SelectOpponent(id string) error {
	if r.lastChoices == nil {
		return ErrNoChoices
	}
	offered := false
	for _, p := range r.lastChoices.Previews {
		if p.Spec.ID == id {
			offered = true
			break
		}
	}
	if !offered {
		return fmt.Errorf("opponent %q was not offered this encounter", id)
	}
	if err := r.transition(runstate.StateTeamPrep); err != nil {
		return err
	}
	r.chosenOpponent = id
	r.prevRoles = r.lastChoices.Roles
	return nil
}

// StartBattle builds the battle for the chosen opponent from a
// battle-scoped stream and enters the battle phase.
func (r *Run) StartBattle() error {
	if r.chosenOpponent == "" {
		return errors.New("no opponent selected")
	}
	if cur := r.machine.Current(); cur != runstate.StateTeamPrep {
		return &runstate.InvalidTransitionError{From: cur, Target: runstate.StateBattle}
	}
	battle, spec, err := r.buildBattle()
	if err != nil {
		return err
	}
	if err := r.transition(runstate.StateBattle); err != nil {
		return err
	}
	r.battle = battle

	_ = r.emitter.Emit(telemetry.Event{
		Kind:           telemetry.KindBattleStart,
		RunID:          r.id,
		Seed:           r.seed,
		EncounterIndex: r.encounterIndex,
		Payload:        map[string]any{"opponent": spec.ID, "enemy_units": len(spec.Units)},
	})
	return nil
}

// buildBattle constructs the battle for the chosen opponent. Battle units
// are fresh copies; the persistent team is never mutated by combat.
func (r *Run) buildBattle() (*combat.Battle, catalog.OpponentSpec, error) {
	spec, ok := r.cat.Opponent(r.chosenOpponent)
	if !ok {
		return nil, catalog.OpponentSpec{}, fmt.Errorf("opponent %q missing from catalog", r.chosenOpponent)
	}

	players := make([]*combat.Unit, len(r.team))
	for i, m := range r.team {
		players[i] = &combat.Unit{
			ID: m.ID, Name: m.Name, Side: combat.SidePlayer,
			HP: m.HP, MaxHP: m.HP, Atk: m.Atk, Def: m.Def, Speed: m.Speed,
		}
	}
	var enemies []*combat.Unit
	for i, tpl := range r.cat.UnitsOf(spec) {
		enemies = append(enemies, combat.NewUnit(fmt.Sprintf("%s-%d", tpl.ID, i), tpl, combat.SideEnemy))
	}

	stream := r.root().Fork("battle" + strconv.Itoa(r.encounterIndex))
	battle, err := combat.New(players, enemies, stream)
	if err != nil {
		return nil, catalog.OpponentSpec{}, err
	}
	return battle, spec, nil
}

// ExecuteBattle drives the in-flight battle to completion. A nil script
// plays both sides with the attack-lowest-HP heuristic; otherwise script
// commands are consumed one per player turn. On termination the run moves
// to rewards (player win) or defeat (loss or flee).
func (r *Run) ExecuteBattle(script []combat.Command) (combat.Result, error) {
	if r.battle == nil || r.machine.Current() != runstate.StateBattle {
		return combat.Result{}, errors.New("no battle in progress")
	}

	var res combat.Result
	var err error
	if script == nil {
		res, err = r.battle.RunAuto()
	} else {
		res, err = r.runScript(script)
	}
	if err != nil {
		return combat.Result{}, err
	}

	_ = r.emitter.Emit(telemetry.Event{
		Kind:           telemetry.KindBattleEnd,
		RunID:          r.id,
		Seed:           r.seed,
		EncounterIndex: r.encounterIndex,
		Payload: map[string]any{
			"opponent": r.chosenOpponent,
			"winner":   string(res.Winner),
			"turns":    res.TurnsTaken,
			"defeated": res.UnitsDefeated,
		},
	})

	next := runstate.StateDefeat
	if res.Winner == combat.WinnerPlayer {
		next = runstate.StateRewards
	}
	if err := r.transition(next); err != nil {
		return combat.Result{}, err
	}
	r.battle = nil
	return res, nil
}

func (r *Run) runScript(script []combat.Command) (combat.Result, error) {
	i := 0
	for !r.battle.Done() {
		var cmd *combat.Command
		if r.battle.Next().Side == combat.SidePlayer {
			if i >= len(script) {
				return combat.Result{}, ErrScriptExhausted
			}
			cmd = &script[i]
			i++
		}
		if err := r.battle.Step(cmd); err != nil {
			return combat.Result{}, err
		}
	}
	return r.battle.Result()
}

// Recruit moves rewards -> recruit and, when templateID is non-empty,
// adds that template to the team. Recruited unit ids come from a
// run-scoped monotonic counter, never from the clock.
func (r *Run) Recruit(templateID string) (*Member, error) {
	var tpl catalog.UnitTemplate
	if templateID != "" {
		var ok bool
		tpl, ok = r.cat.Unit(templateID)
		if !ok {
			return nil, fmt.Errorf("unknown unit template %q", templateID)
		}
	}
	if err := r.transition(runstate.StateRecruit); err != nil {
		return nil, err
	}
	if templateID == "" {
		return nil, nil
	}
	r.recruitCounter++
	m := MemberFromTemplate(fmt.Sprintf("recruit-%d", r.recruitCounter), tpl)
	r.team = append(r.team, m)
	return &m, nil
}

// AdvanceToNextBattle closes the recruit phase and moves to the next
// encounter's opponent selection.
func (r *Run) AdvanceToNextBattle() error {
	if err := r.transition(runstate.StateOpponentSelect); err != nil {
		return err
	}
	r.encounterIndex++
	r.lastChoices = nil
	r.chosenOpponent = ""
	return nil
}

// ReturnToMenu closes a defeated run.
func (r *Run) ReturnToMenu() error {
	return r.transition(runstate.StateMenu)
}
