package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"adforge/internal/tasks"
	"adforge/internal/watcher"
)

func newWatchCommand(cmdCtx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh open tasks until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			return cmdCtx.withStore(func(store *tasks.Store) error {
				out := cmd.OutOrStdout()
				w, err := watcher.New(cfg, store, client, cmdCtx.notifier(), cmdCtx.ensureLogger())
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if once {
					w.Refresh(runCtx)
					return printOpenSummary(cmd, store)
				}

				open, err := store.ListOpen(runCtx)
				if err != nil {
					return err
				}
				hint := ""
				if isTerminal(out) {
					hint = ", Ctrl-C to stop"
				}
				fmt.Fprintf(out, "Watching %d open tasks (refresh every %ds%s)\n",
					len(open), cfg.Poll.TaskRefreshInterval, hint)

				if err := w.Start(runCtx); err != nil {
					return err
				}
				<-runCtx.Done()
				w.Stop()
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Refresh open tasks a single time and exit")
	return cmd
}

func printOpenSummary(cmd *cobra.Command, store *tasks.Store) error {
	summary, err := store.Summary(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tasks: %d total, %d queued, %d processing, %d completed, %d failed\n",
		summary.Total, summary.Queued, summary.Processing, summary.Completed, summary.Failed)
	return nil
}
