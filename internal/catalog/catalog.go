// Package catalog holds the static game data: unit templates and the
// opponent specs built from them. Catalog data is read-only input to the
// run core; nothing in the simulation mutates it.
package catalog

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tier is an opponent difficulty tier, ordered Standard < Normal < Hard.
type Tier int

const (
	TierStandard Tier = iota
	TierNormal
	TierHard
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierNormal:
		return "normal"
	case TierHard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseTier converts a YAML tier string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "standard":
		return TierStandard, nil
	case "normal":
		return TierNormal, nil
	case "hard":
		return TierHard, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

// UnmarshalYAML decodes a tier from its string form.
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes a tier as its string form.
func (t Tier) MarshalYAML() (any, error) {
	return t.String(), nil
}

// UnitTemplate is the immutable definition of a unit.
type UnitTemplate struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Role  string   `yaml:"role" json:"role"`
	Tags  []string `yaml:"tags" json:"tags,omitempty"`
	HP    int      `yaml:"hp" json:"hp"`
	Atk   int      `yaml:"atk" json:"atk"`
	Def   int      `yaml:"def" json:"def"`
	Speed int      `yaml:"speed" json:"speed"`
}

// OpponentSpec is a named group of unit templates offered as one opponent.
type OpponentSpec struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Tier       Tier     `yaml:"tier" json:"tier"`
	PrimaryTag string   `yaml:"primary_tag" json:"primary_tag"`
	Reward     string   `yaml:"reward" json:"reward"`
	Units      []string `yaml:"units" json:"units"`
}

// Catalog is the full static data set for a run.
type Catalog struct {
	Units     []UnitTemplate
	Opponents []OpponentSpec

	unitByID map[string]int
	oppByID  map[string]int
}

// New builds a catalog and validates internal references.
func New(units []UnitTemplate, opponents []OpponentSpec) (*Catalog, error) {
	c := &Catalog{
		Units:     units,
		Opponents: opponents,
		unitByID:  make(map[string]int, len(units)),
		oppByID:   make(map[string]int, len(opponents)),
	}
	for i, u := range units {
		if u.ID == "" {
			return nil, fmt.Errorf("unit %d: missing id", i)
		}
		if _, dup := c.unitByID[u.ID]; dup {
			return nil, fmt.Errorf("duplicate unit id %q", u.ID)
		}
		c.unitByID[u.ID] = i
	}
	for i, o := range opponents {
		if o.ID == "" {
			return nil, fmt.Errorf("opponent %d: missing id", i)
		}
		if _, dup := c.oppByID[o.ID]; dup {
			return nil, fmt.Errorf("duplicate opponent id %q", o.ID)
		}
		if len(o.Units) == 0 {
			return nil, fmt.Errorf("opponent %q: no units", o.ID)
		}
		for _, id := range o.Units {
			if _, ok := c.unitByID[id]; !ok {
				return nil, fmt.Errorf("opponent %q: unknown unit %q", o.ID, id)
			}
		}
		c.oppByID[o.ID] = i
	}
	return c, nil
}

// Unit looks up a unit template by id.
func (c *Catalog) Unit(id string) (UnitTemplate, bool) {
	i, ok := c.unitByID[id]
	if !ok {
		return UnitTemplate{}, false
	}
	return c.Units[i], true
}

// Opponent looks up an opponent spec by id.
func (c *Catalog) Opponent(id string) (OpponentSpec, bool) {
	i, ok := c.oppByID[id]
	if !ok {
		return OpponentSpec{}, false
	}
	return c.Opponents[i], true
}

// UnitsOf resolves an opponent spec's unit ids to templates, in spec order.
func (c *Catalog) UnitsOf(spec OpponentSpec) []UnitTemplate {
	out := make([]UnitTemplate, 0, len(spec.Units))
	for _, id := range spec.Units {
		out = append(out, c.Units[c.unitByID[id]])
	}
	return out
}

// Roles returns the sorted set of distinct roles present in a spec's units.
func (c *Catalog) Roles(spec OpponentSpec) []string {
	seen := map[string]bool{}
	var roles []string
	for _, u := range c.UnitsOf(spec) {
		if !seen[u.Role] {
			seen[u.Role] = true
			roles = append(roles, u.Role)
		}
	}
	sort.Strings(roles)
	return roles
}
