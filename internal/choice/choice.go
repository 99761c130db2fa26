// Package choice generates the per-encounter set of opponent previews.
//
// Generation is deterministic: the caller's root stream is forked with
// "choice" and then with the encounter index, so encounter N always sees
// the same candidates for a given run seed no matter how many other
// encounters were generated before it.
package choice

import (
	"fmt"
	"sort"
	"strconv"

	"gauntlet/internal/catalog"
	"gauntlet/internal/rng"
)

// ChoiceCount is the number of previews offered per encounter.
const ChoiceCount = 3

// attemptsPerLevel bounds the constraint search before a rule is dropped.
const attemptsPerLevel = 10

// Rule names reported when generation degrades.
const (
	RuleRoleRepetition = "role-repetition"
	RuleTagUniqueness  = "tag-uniqueness"
	RuleTierBounds     = "tier-bounds"
)

// InsufficientCatalogError reports a catalog too small to offer choices.
type InsufficientCatalogError struct {
	Have int
}

func (e *InsufficientCatalogError) Error() string {
	return fmt.Sprintf("catalog has %d opponent specs, need at least %d", e.Have, ChoiceCount)
}

// Preview is the displayable projection of an opponent spec. It is derived
// fresh on every generation call and never persisted.
type Preview struct {
	Spec        catalog.OpponentSpec `json:"spec"`
	Threat      float64              `json:"threat"`
	CounterTags []string             `json:"counter_tags"`
}

// Result is a generated choice set. Degraded generation is a successful
// result with the dropped rules listed, never an error.
type Result struct {
	Previews     []Preview `json:"previews"`
	Roles        []string  `json:"roles"`
	Degraded     bool      `json:"degraded"`
	DroppedRules []string  `json:"dropped_rules,omitempty"`
}

// rules captures which constraints an attempt level still enforces.
// Tier bounds are enforced at every level; only the candidate search can
// give up on them when the catalog makes them unsatisfiable.
type rules struct {
	tagUnique  bool
	roleRepeat bool
}

// Generate produces the opponent previews for one encounter.
//
// prevRoles is the role composition offered by the previous encounter,
// used by the soft no-back-to-back-repetition rule; pass nil for the
// first encounter.
func Generate(root *rng.Stream, encounterIndex int, cat *catalog.Catalog, prevRoles []string) (Result, error) {
	if len(cat.Opponents) < ChoiceCount {
		return Result{}, &InsufficientCatalogError{Have: len(cat.Opponents)}
	}

	s := root.Fork("choice").Fork(strconv.Itoa(encounterIndex))
	lowest, highest := tierRange(cat)

	// Rules are dropped in a fixed order: first the soft role-repetition
	// rule, then tag uniqueness. Tier bounds are never dropped voluntarily.
	levels := []rules{
		{tagUnique: true, roleRepeat: true},
		{tagUnique: true, roleRepeat: false},
		{tagUnique: false, roleRepeat: false},
	}

	var best []catalog.OpponentSpec
	bestViolations := -1

	for _, level := range levels {
		for a := 0; a < attemptsPerLevel; a++ {
			cands := draw(s, cat)
			n := violations(cands, cat, lowest, highest, prevRoles, levels[0])
			if bestViolations < 0 || n < bestViolations {
				best = cands
				bestViolations = n
			}
			if violations(cands, cat, lowest, highest, prevRoles, level) == 0 {
				dropped := brokenRules(cands, cat, lowest, highest, prevRoles)
				return build(cands, cat, len(dropped) > 0, dropped), nil
			}
		}
	}

	// Every level exhausted: even tier bounds could not be met. Accept the
	// least-violating combination seen and report exactly what it breaks.
	dropped := brokenRules(best, cat, lowest, highest, prevRoles)
	return build(best, cat, len(dropped) > 0, dropped), nil
}

// draw picks ChoiceCount distinct specs via a seeded shuffle of the
// catalog indices. A shuffle keeps each attempt's draw count bounded.
func draw(s *rng.Stream, cat *catalog.Catalog) []catalog.OpponentSpec {
	idx := make([]int, len(cat.Opponents))
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(s, idx)
	out := make([]catalog.OpponentSpec, ChoiceCount)
	for i := 0; i < ChoiceCount; i++ {
		out[i] = cat.Opponents[idx[i]]
	}
	return out
}

func tierRange(cat *catalog.Catalog) (lowest, highest catalog.Tier) {
	lowest, highest = cat.Opponents[0].Tier, cat.Opponents[0].Tier
	for _, o := range cat.Opponents[1:] {
		if o.Tier < lowest {
			lowest = o.Tier
		}
		if o.Tier > highest {
			highest = o.Tier
		}
	}
	return lowest, highest
}

// violations counts how many of the enforced rules a candidate set breaks.
func violations(cands []catalog.OpponentSpec, cat *catalog.Catalog, lowest, highest catalog.Tier, prevRoles []string, r rules) int {
	n := 0
	lowCount, highCount := 0, 0
	for _, c := range cands {
		if c.Tier == lowest {
			lowCount++
		}
		if c.Tier == highest {
			highCount++
		}
	}
	if lowCount < 1 {
		n++
	}
	// A one-tier catalog makes every candidate both lowest and highest;
	// the cap only applies when the tiers actually differ.
	if highest != lowest && highCount > 1 {
		n++
	}
	if r.tagUnique && !tagsDistinct(cands) {
		n++
	}
	if r.roleRepeat && len(prevRoles) > 0 && rolesEqual(composition(cands, cat), prevRoles) {
		n++
	}
	return n
}

func brokenRules(cands []catalog.OpponentSpec, cat *catalog.Catalog, lowest, highest catalog.Tier, prevRoles []string) []string {
	var dropped []string
	if violations(cands, cat, lowest, highest, nil, rules{}) > 0 {
		dropped = append(dropped, RuleTierBounds)
	}
	if len(prevRoles) > 0 && rolesEqual(composition(cands, cat), prevRoles) {
		dropped = append(dropped, RuleRoleRepetition)
	}
	if !tagsDistinct(cands) {
		dropped = append(dropped, RuleTagUniqueness)
	}
	return dropped
}

func tagsDistinct(cands []catalog.OpponentSpec) bool {
	seen := map[string]bool{}
	for _, c := range cands {
		if seen[c.PrimaryTag] {
			return false
		}
		seen[c.PrimaryTag] = true
	}
	return true
}

// composition is the sorted set of distinct roles across all candidates'
// units, the "top-line" summary a player sees for the whole choice set.
func composition(cands []catalog.OpponentSpec, cat *catalog.Catalog) []string {
	seen := map[string]bool{}
	var roles []string
	for _, c := range cands {
		for _, r := range cat.Roles(c) {
			if !seen[r] {
				seen[r] = true
				roles = append(roles, r)
			}
		}
	}
	sort.Strings(roles)
	return roles
}

func rolesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func build(cands []catalog.OpponentSpec, cat *catalog.Catalog, degraded bool, dropped []string) Result {
	previews := make([]Preview, len(cands))
	for i, c := range cands {
		previews[i] = Preview{
			Spec:        c,
			Threat:      Threat(c, cat),
			CounterTags: catalog.CountersFor(c.PrimaryTag),
		}
	}
	return Result{
		Previews:     previews,
		Roles:        composition(cands, cat),
		Degraded:     degraded,
		DroppedRules: dropped,
	}
}

// tierBonus feeds the threat score; higher tiers read as bigger threats
// independent of raw stats.
func tierBonus(t catalog.Tier) float64 {
	switch t {
	case catalog.TierNormal:
		return 25
	case catalog.TierHard:
		return 60
	default:
		return 0
	}
}

// Threat scores an opponent spec from its member stats and tier alone.
// No randomness: the same spec always scores the same.
func Threat(spec catalog.OpponentSpec, cat *catalog.Catalog) float64 {
	var hp, atk, def int
	units := cat.UnitsOf(spec)
	for _, u := range units {
		hp += u.HP
		atk += u.Atk
		def += u.Def
	}
	return float64(hp) + float64(atk)*2 + float64(def)*1.5 + tierBonus(spec.Tier) + float64(len(units))*15
}
