package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gauntlet/internal/catalog"
	"gauntlet/internal/combat"
	"gauntlet/internal/rng"
)

type battleOptions struct {
	*RootOptions
	Seed     int64
	Team     string
	Opponent string
}

func newBattleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &battleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "battle",
		Short: "Resolve a single battle and print the action log",
		Long: `Fight one battle between a player team and an opponent from the catalog,
with every unit auto-attacking. The outcome is fully determined by the
seed, the team and the opponent.

Example:
  gauntlet battle --seed 6 --team wolf,cave_bear --opponent wolf_pack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(opts.Assets)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			players, err := buildPlayers(cat, opts.Team)
			if err != nil {
				return err
			}
			enemies, err := buildEnemies(cat, opts.Opponent)
			if err != nil {
				return err
			}

			stream := rng.New(opts.Seed).Fork("battle0")
			b, err := combat.New(players, enemies, stream)
			if err != nil {
				return err
			}
			res, err := b.RunAuto()
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			for _, a := range res.Actions {
				switch a.Type {
				case combat.ActionAttack:
					fmt.Fprintf(out, "%3d  %s attacks %s for %d\n", a.Seq, a.ActorID, a.TargetID, a.Damage)
				case combat.ActionDefend:
					fmt.Fprintf(out, "%3d  %s defends\n", a.Seq, a.ActorID)
				case combat.ActionFlee:
					fmt.Fprintf(out, "%3d  %s flees\n", a.Seq, a.ActorID)
				}
			}
			fmt.Fprintf(out, "winner: %s after %d turns\n", res.Winner, res.TurnsTaken)
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "battle seed")
	cmd.Flags().StringVar(&opts.Team, "team", "wolf,cave_bear,hedge_mage", "comma-separated unit template ids for the player side")
	cmd.Flags().StringVar(&opts.Opponent, "opponent", "", "opponent spec id from the catalog")
	_ = cmd.MarkFlagRequired("opponent")
	return cmd
}

// buildPlayers instantiates the player roster from template ids.
func buildPlayers(cat *catalog.Catalog, team string) ([]*combat.Unit, error) {
	ids := strings.Split(team, ",")
	units := make([]*combat.Unit, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		tpl, ok := cat.Unit(id)
		if !ok {
			return nil, fmt.Errorf("unknown unit template %q", id)
		}
		units = append(units, combat.NewUnit("p"+strconv.Itoa(i), tpl, combat.SidePlayer))
	}
	return units, nil
}

// buildEnemies instantiates an opponent spec's roster.
func buildEnemies(cat *catalog.Catalog, opponentID string) ([]*combat.Unit, error) {
	spec, ok := cat.Opponent(opponentID)
	if !ok {
		return nil, fmt.Errorf("unknown opponent %q", opponentID)
	}
	units := make([]*combat.Unit, 0, len(spec.Units))
	for i, tplID := range spec.Units {
		tpl, _ := cat.Unit(tplID)
		units = append(units, combat.NewUnit(tplID+"-"+strconv.Itoa(i), tpl, combat.SideEnemy))
	}
	return units, nil
}
