package combat

import "gauntlet/internal/catalog"

// Side distinguishes player units from enemy units.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "enemy"
}

// Unit is a mutable combat-time instance of a template. It is owned by a
// single battle and discarded when the battle ends.
type Unit struct {
	ID        string
	Name      string
	Side      Side
	RosterIdx int

	HP    int
	MaxHP int
	Atk   int
	Def   int
	Speed int

	// Defending halves the next hit taken and is cleared by it.
	Defending bool
}

// NewUnit instantiates a template for battle. The id is caller-chosen so
// duplicate templates in one roster stay distinguishable.
func NewUnit(id string, tpl catalog.UnitTemplate, side Side) *Unit {
	return &Unit{
		ID:    id,
		Name:  tpl.Name,
		Side:  side,
		HP:    tpl.HP,
		MaxHP: tpl.HP,
		Atk:   tpl.Atk,
		Def:   tpl.Def,
		Speed: tpl.Speed,
	}
}

// Alive reports whether the unit can still act or be targeted.
func (u *Unit) Alive() bool {
	return u.HP > 0
}

func (u *Unit) applyDamage(dmg int) {
	u.HP -= dmg
	if u.HP < 0 {
		u.HP = 0
	}
}
