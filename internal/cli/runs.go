package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gauntlet/internal/store"
)

func newRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(rootOpts.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			summaries, err := st.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), summaries)
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "no saved runs")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%s  seed=%-12d encounter=%-3d state=%-15s %s\n",
					s.ID, s.Seed, s.EncounterIndex, s.State, s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	return cmd
}
