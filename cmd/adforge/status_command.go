package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adforge/internal/preflight"
	"adforge/internal/tasks"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var skipBackend bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show client health and task summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			var prober preflight.BalanceProber
			if !skipBackend {
				client, err := cmdCtx.apiClient()
				if err != nil {
					return err
				}
				prober = client
			}

			out := cmd.OutOrStdout()
			results := preflight.RunAll(cmd.Context(), cfg, prober)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if err := cmdCtx.withStore(func(store *tasks.Store) error {
				summary, err := store.Summary(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Tasks: %d total, %d queued, %d processing, %d completed, %d failed, %d cancelled\n",
					summary.Total, summary.Queued, summary.Processing, summary.Completed, summary.Failed, summary.Cancelled)
				return nil
			}); err != nil {
				return err
			}

			if !preflight.Passed(results) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipBackend, "offline", false, "Skip the backend reachability check")
	return cmd
}
