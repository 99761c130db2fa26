package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gauntlet/internal/catalog"
	"gauntlet/internal/combat"
	"gauntlet/internal/rng"
	"gauntlet/internal/run"
	"gauntlet/internal/runstate"
	"gauntlet/internal/store"
	"gauntlet/internal/telemetry"
)

type runOptions struct {
	*RootOptions
	Seed       int64
	Team       string
	Encounters int
}

// runReport is the JSON shape printed after an auto-run.
type runReport struct {
	RunID           string   `json:"run_id"`
	Seed            int64    `json:"seed"`
	EncountersWon   int      `json:"encounters_won"`
	FinalState      string   `json:"final_state"`
	Team            []string `json:"team"`
	DegradedChoices int      `json:"degraded_choices"`
}

func newRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play a full run automatically and save it",
		Long: `Start a run with the given starter team and auto-play encounters until
the team is defeated or the encounter limit is reached. Each encounter
picks the lowest-threat opponent, auto-resolves the battle and recruits
the first unit of the beaten opponent. The run snapshot and its
telemetry are saved to the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := seedFromFlag(cmd.Flags(), "seed", opts.Seed, rng.NewSeed)
			if err != nil {
				return err
			}

			cat, err := catalog.Load(opts.Assets)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			st, err := store.Open(opts.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			report, err := playRun(cat, st, logger, seed, opts.Team, opts.Encounters)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s (seed %d): %d encounters won, ended in %s\n",
				report.RunID, report.Seed, report.EncountersWon, report.FinalState)
			fmt.Fprintf(out, "final team: %s\n", strings.Join(report.Team, ", "))
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "run seed (random when omitted)")
	cmd.Flags().StringVar(&opts.Team, "team", "wolf,cave_bear,hedge_mage", "comma-separated starter unit template ids")
	cmd.Flags().IntVar(&opts.Encounters, "encounters", 10, "maximum encounters to play")
	return cmd
}

// playRun drives a run from start to defeat or the encounter limit,
// saving the snapshot after every committed phase.
func playRun(cat *catalog.Catalog, st *store.Store, logger *slog.Logger, seed int64, team string, maxEncounters int) (*runReport, error) {
	ctx := context.Background()
	emitter := telemetry.NewEmitter(st.TelemetrySink())

	starters, err := buildStarters(cat, team)
	if err != nil {
		return nil, err
	}

	r := run.New(cat, emitter)
	if err := r.Start(starters, seed); err != nil {
		return nil, err
	}
	logger.Info("run started", "run_id", r.ID(), "seed", seed)

	report := &runReport{RunID: r.ID(), Seed: seed}
	for i := 0; i < maxEncounters; i++ {
		choices, err := r.GenerateChoices()
		if err != nil {
			return nil, err
		}
		if choices.Degraded {
			report.DegradedChoices++
		}

		pick := choices.Previews[0]
		for _, p := range choices.Previews[1:] {
			if p.Threat < pick.Threat {
				pick = p
			}
		}
		if err := r.SelectOpponent(pick.Spec.ID); err != nil {
			return nil, err
		}
		if err := r.StartBattle(); err != nil {
			return nil, err
		}
		res, err := r.ExecuteBattle(nil)
		if err != nil {
			return nil, err
		}
		logger.Info("battle resolved",
			"encounter", i, "opponent", pick.Spec.ID, "winner", res.Winner, "turns", res.TurnsTaken)

		if err := st.SaveRun(ctx, r.Snapshot()); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		if res.Winner != combat.WinnerPlayer {
			break
		}
		report.EncountersWon++

		if _, err := r.Recruit(pick.Spec.Units[0]); err != nil {
			return nil, err
		}
		if err := r.AdvanceToNextBattle(); err != nil {
			return nil, err
		}
		if err := st.SaveRun(ctx, r.Snapshot()); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	if r.State() == runstate.StateDefeat {
		if err := r.ReturnToMenu(); err != nil {
			return nil, err
		}
	}
	if err := st.SaveRun(ctx, r.Snapshot()); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	report.FinalState = string(r.State())
	for _, m := range r.Team() {
		report.Team = append(report.Team, m.Name)
	}
	return report, nil
}

// buildStarters builds the starter team from template ids.
func buildStarters(cat *catalog.Catalog, team string) ([]run.Member, error) {
	ids := strings.Split(team, ",")
	members := make([]run.Member, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		tpl, ok := cat.Unit(id)
		if !ok {
			return nil, fmt.Errorf("unknown unit template %q", id)
		}
		members = append(members, run.MemberFromTemplate("starter-"+strconv.Itoa(i), tpl))
	}
	return members, nil
}
