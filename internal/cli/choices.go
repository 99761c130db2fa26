package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gauntlet/internal/catalog"
	"gauntlet/internal/choice"
	"gauntlet/internal/rng"
)

type choicesOptions struct {
	*RootOptions
	Seed      int64
	Encounter int
}

func newChoicesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &choicesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "choices",
		Short: "Preview the opponent choices for a seed and encounter",
		Long: `Derive the three opponent previews a run with the given seed would be
offered at the given encounter index. The same seed and index always
produce the same previews.

Example:
  gauntlet choices --seed 42 --encounter 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(opts.Assets)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			res, err := choice.Generate(rng.New(opts.Seed), opts.Encounter, cat, nil)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed %d, encounter %d:\n", opts.Seed, opts.Encounter)
			for _, p := range res.Previews {
				fmt.Fprintf(out, "  %-18s tier=%-8s tag=%-8s threat=%.1f counters=%v\n",
					p.Spec.ID, p.Spec.Tier, p.Spec.PrimaryTag, p.Threat, p.CounterTags)
			}
			if res.Degraded {
				fmt.Fprintf(out, "  degraded: dropped %v\n", res.DroppedRules)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "run seed")
	cmd.Flags().IntVar(&opts.Encounter, "encounter", 0, "encounter index")
	return cmd
}
