package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/catalog"
	"gauntlet/internal/combat"
	"gauntlet/internal/runstate"
	"gauntlet/internal/telemetry"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	units := []catalog.UnitTemplate{
		{ID: "wolf", Name: "Gray Wolf", Role: "striker", HP: 22, Atk: 9, Def: 2, Speed: 7},
		{ID: "bear", Name: "Cave Bear", Role: "tank", HP: 46, Atk: 8, Def: 7, Speed: 3},
		{ID: "rat", Name: "Giant Rat", Role: "striker", HP: 10, Atk: 5, Def: 1, Speed: 9},
		{ID: "mage", Name: "Hedge Mage", Role: "caster", HP: 16, Atk: 12, Def: 1, Speed: 5},
		{ID: "guard", Name: "Shieldbearer", Role: "tank", HP: 38, Atk: 6, Def: 8, Speed: 3},
	}
	opponents := []catalog.OpponentSpec{
		{ID: "pack", Name: "Wolf Pack", Tier: catalog.TierStandard, PrimaryTag: "beast", Units: []string{"wolf", "wolf"}},
		{ID: "nest", Name: "Rat Nest", Tier: catalog.TierStandard, PrimaryTag: "swarm", Units: []string{"rat", "rat", "rat"}},
		{ID: "ambush", Name: "Ambush", Tier: catalog.TierStandard, PrimaryTag: "bandit", Units: []string{"guard", "wolf"}},
		{ID: "cave", Name: "Bear Cave", Tier: catalog.TierNormal, PrimaryTag: "armored", Units: []string{"bear"}},
		{ID: "circle", Name: "Mage Circle", Tier: catalog.TierHard, PrimaryTag: "arcane", Units: []string{"mage", "mage"}},
	}
	c, err := catalog.New(units, opponents)
	require.NoError(t, err)
	return c
}

func strongTeam() []Member {
	return []Member{
		{ID: "hero-1", Name: "Hero", Role: "striker", HP: 1000, Atk: 100, Def: 50, Speed: 99},
	}
}

func weakTeam() []Member {
	return []Member{
		{ID: "pawn-1", Name: "Pawn", Role: "striker", HP: 1, Atk: 1, Def: 0, Speed: 1},
	}
}

// playEncounter drives one full win cycle: generate, pick, fight, recruit.
func playEncounter(t *testing.T, r *Run, recruitID string) combat.Result {
	t.Helper()
	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.Len(t, res.Previews, 3)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())
	out, err := r.ExecuteBattle(nil)
	require.NoError(t, err)
	require.Equal(t, combat.WinnerPlayer, out.Winner)
	_, err = r.Recruit(recruitID)
	require.NoError(t, err)
	require.NoError(t, r.AdvanceToNextBattle())
	return out
}

func TestRun_FullCycle(t *testing.T) {
	sink := &telemetry.MemorySink{}
	r := New(testCatalog(t), telemetry.NewEmitter(sink))
	require.NoError(t, r.Start(strongTeam(), 42))
	require.Equal(t, runstate.StateOpponentSelect, r.State())
	require.NotEmpty(t, r.ID())

	playEncounter(t, r, "wolf")
	assert.Equal(t, 1, r.EncounterIndex())
	require.Len(t, r.Team(), 2)
	assert.Equal(t, "recruit-1", r.Team()[1].ID)

	playEncounter(t, r, "")
	assert.Equal(t, 2, r.EncounterIndex())
	assert.Len(t, r.Team(), 2, "empty recruit id must not grow the team")

	// Telemetry reconstructs the whole story.
	assert.NotEmpty(t, sink.ByKind(telemetry.KindStateTransition))
	gen := sink.ByKind(telemetry.KindChoiceGenerated)
	require.Len(t, gen, 2)
	assert.Equal(t, int64(42), gen[0].Seed)
	assert.Equal(t, 0, gen[0].EncounterIndex)
	assert.Equal(t, 1, gen[1].EncounterIndex)
	assert.Len(t, sink.ByKind(telemetry.KindBattleStart), 2)
	ends := sink.ByKind(telemetry.KindBattleEnd)
	require.Len(t, ends, 2)
	assert.Equal(t, "player", ends[0].Payload["winner"])
}

func TestRun_StartTagsTransitionEvents(t *testing.T) {
	sink := &telemetry.MemorySink{}
	r := New(testCatalog(t), telemetry.NewEmitter(sink))
	require.NoError(t, r.Start(weakTeam(), 42))

	trans := sink.ByKind(telemetry.KindStateTransition)
	require.Len(t, trans, 2)
	for _, evt := range trans {
		assert.Equal(t, r.ID(), evt.RunID)
		assert.Equal(t, int64(42), evt.Seed)
	}

	// Reusing the controller after defeat must tag events with the new
	// run's identity, not the previous one's.
	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())
	_, err = r.ExecuteBattle(nil)
	require.NoError(t, err)
	require.NoError(t, r.ReturnToMenu())
	firstID := r.ID()

	require.NoError(t, r.Start(weakTeam(), 7))
	trans = sink.ByKind(telemetry.KindStateTransition)
	fresh := trans[len(trans)-2:]
	for _, evt := range fresh {
		assert.Equal(t, r.ID(), evt.RunID)
		assert.NotEqual(t, firstID, evt.RunID)
		assert.Equal(t, int64(7), evt.Seed)
	}
}

func TestRun_ChoicesReproducible(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))

	a, err := r.GenerateChoices()
	require.NoError(t, err)
	b, err := r.GenerateChoices()
	require.NoError(t, err)
	assert.Equal(t, a, b, "regenerating the same encounter must be identical")

	r2 := New(testCatalog(t), nil)
	require.NoError(t, r2.Start(strongTeam(), 42))
	c, err := r2.GenerateChoices()
	require.NoError(t, err)
	assert.Equal(t, a, c, "same seed must offer the same choices")
}

func TestRun_BattleDeterministicAcrossRuns(t *testing.T) {
	play := func() combat.Result {
		r := New(testCatalog(t), nil)
		require.NoError(t, r.Start(strongTeam(), 7))
		res, err := r.GenerateChoices()
		require.NoError(t, err)
		require.NoError(t, r.SelectOpponent(res.Previews[1].Spec.ID))
		require.NoError(t, r.StartBattle())
		out, err := r.ExecuteBattle(nil)
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, play(), play())
}

func TestRun_GenerateChoicesOutsideSelection(t *testing.T) {
	r := New(testCatalog(t), nil)
	_, err := r.GenerateChoices()
	var invalid *runstate.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, runstate.StateMenu, invalid.From)
}

func TestRun_SelectOpponentValidation(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))

	assert.ErrorIs(t, r.SelectOpponent("pack"), ErrNoChoices)

	_, err := r.GenerateChoices()
	require.NoError(t, err)
	err = r.SelectOpponent("not-a-spec")
	require.Error(t, err)
	assert.Equal(t, runstate.StateOpponentSelect, r.State(), "failed selection must not advance the run")
}

func TestRun_DefeatPath(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(weakTeam(), 11))

	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())

	out, err := r.ExecuteBattle(nil)
	require.NoError(t, err)
	assert.Equal(t, combat.WinnerEnemy, out.Winner)
	assert.Equal(t, runstate.StateDefeat, r.State())
	require.NoError(t, r.ReturnToMenu())
	assert.Equal(t, runstate.StateMenu, r.State())
}

func TestRun_FleeCountsAsDefeat(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))

	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())

	out, err := r.ExecuteBattle([]combat.Command{{Type: combat.ActionFlee}})
	require.NoError(t, err)
	assert.Equal(t, combat.WinnerDraw, out.Winner)
	assert.Equal(t, runstate.StateDefeat, r.State())
}

func TestRun_ScriptExhaustedKeepsBattle(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))

	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())

	_, err = r.ExecuteBattle([]combat.Command{{Type: combat.ActionDefend}})
	require.ErrorIs(t, err, ErrScriptExhausted)
	assert.Equal(t, runstate.StateBattle, r.State())
	require.NotNil(t, r.Battle())

	// The run can still finish the battle.
	_, err = r.ExecuteBattle(nil)
	require.NoError(t, err)
}

func TestRun_RecruitCounterSurvivesSnapshot(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))
	playEncounter(t, r, "wolf")

	restored, err := Restore(testCatalog(t), r.Snapshot(), nil)
	require.NoError(t, err)
	playEncounter(t, restored, "rat")

	team := restored.Team()
	require.Len(t, team, 3)
	assert.Equal(t, "recruit-1", team[1].ID)
	assert.Equal(t, "recruit-2", team[2].ID, "counter must continue after restore")
}

func TestRun_SnapshotRoundTrip(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))
	playEncounter(t, r, "wolf")

	snap := r.Snapshot()
	assert.Equal(t, int64(42), snap.Seed)
	assert.Equal(t, 1, snap.EncounterIndex)
	assert.Equal(t, runstate.StateOpponentSelect, snap.State)
	assert.NotEmpty(t, snap.History)

	restored, err := Restore(testCatalog(t), snap, nil)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot(), "snapshot must round-trip verbatim")

	// Re-deriving the next encounter's previews after restore matches the
	// original run's derivation.
	want, err := r.GenerateChoices()
	require.NoError(t, err)
	got, err := restored.GenerateChoices()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_RestoreMidBattleRebuildsDeterministically(t *testing.T) {
	r := New(testCatalog(t), nil)
	require.NoError(t, r.Start(strongTeam(), 42))
	res, err := r.GenerateChoices()
	require.NoError(t, err)
	require.NoError(t, r.SelectOpponent(res.Previews[0].Spec.ID))
	require.NoError(t, r.StartBattle())

	restored, err := Restore(testCatalog(t), r.Snapshot(), nil)
	require.NoError(t, err)
	require.NotNil(t, restored.Battle())

	want, err := r.ExecuteBattle(nil)
	require.NoError(t, err)
	got, err := restored.ExecuteBattle(nil)
	require.NoError(t, err)
	assert.Equal(t, want, got, "rebuilt battle must replay identically")
}

func TestRun_StartRequiresTeam(t *testing.T) {
	r := New(testCatalog(t), nil)
	assert.Error(t, r.Start(nil, 1))
}

func TestMemberFromTemplate(t *testing.T) {
	tpl := catalog.UnitTemplate{ID: "wolf", Name: "Gray Wolf", Role: "striker", HP: 22, Atk: 9, Def: 2, Speed: 7}
	m := MemberFromTemplate("starter-1", tpl)
	assert.Equal(t, "starter-1", m.ID)
	assert.Equal(t, "Gray Wolf", m.Name)
	assert.Equal(t, 22, m.HP)
}
