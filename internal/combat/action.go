package combat

// ActionType is the kind of a resolved combat action.
type ActionType string

const (
	ActionAttack ActionType = "attack"
	ActionDefend ActionType = "defend"
	ActionFlee   ActionType = "flee"
)

// Action is one immutable entry of a battle's append-only log. Seq is the
// sole ordering key: strictly increasing and gapless, starting at 1.
// Attacks always carry Damage; defend and flee never do.
type Action struct {
	Seq      int        `json:"seq"`
	Type     ActionType `json:"type"`
	ActorID  string     `json:"actor_id"`
	TargetID string     `json:"target_id,omitempty"`
	Damage   int        `json:"damage,omitempty"`
}

// Command is a caller-supplied decision for a player unit's turn.
type Command struct {
	Type     ActionType
	TargetID string
}

// Winner is the outcome of a finished battle.
type Winner string

const (
	WinnerPlayer Winner = "player"
	WinnerEnemy  Winner = "enemy"
	WinnerDraw   Winner = "draw"
)

// Result is the subset of battle facts that outlives the battle.
type Result struct {
	Winner        Winner   `json:"winner"`
	Actions       []Action `json:"actions"`
	UnitsDefeated []string `json:"units_defeated"`
	TurnsTaken    int      `json:"turns_taken"`
}
