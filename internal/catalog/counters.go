package catalog

// counterTags maps an opponent's primary tag to the tags that counter it.
// The table is static game data; counter lookup never touches RNG.
var counterTags = map[string][]string{
	"beast":     {"hunter", "net"},
	"undead":    {"holy", "fire"},
	"armored":   {"pierce", "acid"},
	"swarm":     {"splash", "fire"},
	"arcane":    {"silence", "null"},
	"bandit":    {"guard", "net"},
	"construct": {"acid", "hammer"},
}

// CountersFor returns the counter tags for a primary tag. The returned
// slice is a copy; unknown tags yield an empty slice, not nil lookups.
func CountersFor(primaryTag string) []string {
	src := counterTags[primaryTag]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
