// Package combat resolves one turn-based battle into a deterministic,
// sequence-numbered action log.
//
// The resolver is a step function: the caller drives it one unit turn at a
// time, supplying a Command whenever the acting unit belongs to the player.
// Enemy units auto-attack the lowest-HP living opposing unit. All variance
// comes from a single battle-scoped stream, so identical rosters, commands
// and stream state replay to an identical log and winner.
package combat

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gauntlet/internal/rng"
)

// ErrBattleOver reports a Step on a finished battle.
var ErrBattleOver = errors.New("battle already resolved")

// ErrCommandRequired reports a player turn stepped without a command.
var ErrCommandRequired = errors.New("player turn needs a command")

// UnknownUnitError reports an actor or target absent from both rosters.
type UnknownUnitError struct {
	ID string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unit %q is not in this battle", e.ID)
}

// NoLivingTargetError reports an attack with no living target available.
type NoLivingTargetError struct {
	ActorID  string
	TargetID string
}

func (e *NoLivingTargetError) Error() string {
	if e.TargetID != "" {
		return fmt.Sprintf("%s cannot attack %s: target is down", e.ActorID, e.TargetID)
	}
	return fmt.Sprintf("%s has no living target", e.ActorID)
}

// Battle is one combat resolution in progress. It is not safe for
// concurrent use; callers drive Step strictly one call at a time.
type Battle struct {
	players []*Unit
	enemies []*Unit
	stream  *rng.Stream

	order  []*Unit
	cursor int

	actions []Action
	seq     int
	rounds  int

	winner Winner
	done   bool
}

// New starts a battle over the given rosters, drawing all variance from
// stream. Rosters must be non-empty; unit ids must be unique per battle.
func New(players, enemies []*Unit, stream *rng.Stream) (*Battle, error) {
	if len(players) == 0 || len(enemies) == 0 {
		return nil, errors.New("both rosters must have at least one unit")
	}
	seen := map[string]bool{}
	for i, u := range players {
		u.Side = SidePlayer
		u.RosterIdx = i
		if seen[u.ID] {
			return nil, fmt.Errorf("duplicate unit id %q", u.ID)
		}
		seen[u.ID] = true
	}
	for i, u := range enemies {
		u.Side = SideEnemy
		u.RosterIdx = i
		if seen[u.ID] {
			return nil, fmt.Errorf("duplicate unit id %q", u.ID)
		}
		seen[u.ID] = true
	}
	b := &Battle{players: players, enemies: enemies, stream: stream}
	b.order = b.initiative()
	return b, nil
}

// initiative orders all living units: speed descending, player side before
// enemy side, then original roster index. No RNG is involved, so the order
// is stable across replays by construction.
func (b *Battle) initiative() []*Unit {
	var order []*Unit
	for _, u := range b.players {
		if u.Alive() {
			order = append(order, u)
		}
	}
	for _, u := range b.enemies {
		if u.Alive() {
			order = append(order, u)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, c := order[i], order[j]
		if a.Speed != c.Speed {
			return a.Speed > c.Speed
		}
		if a.Side != c.Side {
			return a.Side == SidePlayer
		}
		return a.RosterIdx < c.RosterIdx
	})
	return order
}

// Done reports whether the battle has terminated.
func (b *Battle) Done() bool {
	return b.done
}

// Next returns the unit that will act on the following Step call, skipping
// units that died earlier in the round. It returns nil once the battle is
// over.
func (b *Battle) Next() *Unit {
	if b.done {
		return nil
	}
	b.advance()
	return b.order[b.cursor]
}

// advance moves the cursor to the next living actor, rolling the round
// over (and recomputing initiative) when the current one is exhausted.
// Dead units are skipped with no action recorded.
func (b *Battle) advance() {
	for {
		if b.cursor >= len(b.order) {
			b.rounds++
			b.order = b.initiative()
			b.cursor = 0
		}
		if b.order[b.cursor].Alive() {
			return
		}
		b.cursor++
	}
}

// Step resolves one unit turn. cmd is required when the acting unit is a
// player unit and ignored for enemy units. A failed Step leaves HP, flags
// and the action log untouched.
func (b *Battle) Step(cmd *Command) error {
	if b.done {
		return ErrBattleOver
	}
	b.advance()
	actor := b.order[b.cursor]

	if actor.Side == SidePlayer {
		if cmd == nil {
			return ErrCommandRequired
		}
		return b.act(actor, *cmd)
	}

	target := b.lowestHP(b.players)
	if target == nil {
		return &NoLivingTargetError{ActorID: actor.ID}
	}
	return b.act(actor, Command{Type: ActionAttack, TargetID: target.ID})
}

func (b *Battle) act(actor *Unit, cmd Command) error {
	switch cmd.Type {
	case ActionAttack:
		target := b.find(cmd.TargetID)
		if target == nil {
			return &UnknownUnitError{ID: cmd.TargetID}
		}
		if !target.Alive() {
			return &NoLivingTargetError{ActorID: actor.ID, TargetID: target.ID}
		}
		dmg := b.damage(actor, target)
		target.applyDamage(dmg)
		b.log(Action{Type: ActionAttack, ActorID: actor.ID, TargetID: target.ID, Damage: dmg})
	case ActionDefend:
		actor.Defending = true
		b.log(Action{Type: ActionDefend, ActorID: actor.ID})
	case ActionFlee:
		b.log(Action{Type: ActionFlee, ActorID: actor.ID})
		b.finish(WinnerDraw)
		return nil
	default:
		return fmt.Errorf("unknown action type %q", cmd.Type)
	}

	b.cursor++
	b.checkTermination()
	return nil
}

// damage applies the formula max(1, floor(atk - def/2) + variance), then
// halves (floored) when the target is defending. The defending flag is
// consumed by the hit. The final value is never below 1.
func (b *Battle) damage(actor, target *Unit) int {
	variance := b.stream.Int(-2, 2)
	dmg := int(math.Floor(float64(actor.Atk)-float64(target.Def)/2)) + variance
	if dmg < 1 {
		dmg = 1
	}
	if target.Defending {
		target.Defending = false
		dmg /= 2
		if dmg < 1 {
			dmg = 1
		}
	}
	return dmg
}

func (b *Battle) log(a Action) {
	b.seq++
	a.Seq = b.seq
	b.actions = append(b.actions, a)
}

func (b *Battle) checkTermination() {
	if b.lowestHP(b.enemies) == nil {
		b.finish(WinnerPlayer)
		return
	}
	if b.lowestHP(b.players) == nil {
		b.finish(WinnerEnemy)
	}
}

func (b *Battle) finish(w Winner) {
	b.winner = w
	b.done = true
}

// lowestHP returns the living unit with the lowest current HP, breaking
// ties by roster index. It returns nil when the side is wiped.
func (b *Battle) lowestHP(side []*Unit) *Unit {
	var best *Unit
	for _, u := range side {
		if !u.Alive() {
			continue
		}
		if best == nil || u.HP < best.HP {
			best = u
		}
	}
	return best
}

// find looks a unit up in either roster.
func (b *Battle) find(id string) *Unit {
	for _, u := range b.players {
		if u.ID == id {
			return u
		}
	}
	for _, u := range b.enemies {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Result reports the outcome of a finished battle. TurnsTaken counts
// initiative rounds, including the round the battle ended in.
func (b *Battle) Result() (Result, error) {
	if !b.done {
		return Result{}, errors.New("battle still in progress")
	}
	var defeated []string
	for _, u := range b.enemies {
		if !u.Alive() {
			defeated = append(defeated, u.ID)
		}
	}
	actions := make([]Action, len(b.actions))
	copy(actions, b.actions)
	return Result{
		Winner:        b.winner,
		Actions:       actions,
		UnitsDefeated: defeated,
		TurnsTaken:    b.rounds + 1,
	}, nil
}

// RunAuto drives the battle to completion with the attack-lowest-HP
// heuristic on both sides.
func (b *Battle) RunAuto() (Result, error) {
	for !b.done {
		next := b.Next()
		var cmd *Command
		if next.Side == SidePlayer {
			target := b.lowestHP(b.enemies)
			if target == nil {
				return Result{}, &NoLivingTargetError{ActorID: next.ID}
			}
			cmd = &Command{Type: ActionAttack, TargetID: target.ID}
		}
		if err := b.Step(cmd); err != nil {
			return Result{}, err
		}
	}
	return b.Result()
}
