package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"adforge/internal/download"
	"adforge/internal/jobs"
	"adforge/internal/tasks"
)

func newDownloadCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <task-id>",
		Short: "Download a completed task's artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			return cmdCtx.withStore(func(store *tasks.Store) error {
				task, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %d not found", id)
				}
				if task.Status != jobs.StatusCompleted {
					return fmt.Errorf("task %d is %s, not completed", id, task.Status)
				}

				d := download.New(cfg, cmdCtx.ensureLogger())
				path, err := d.Save(cmd.Context(), task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", path)
				return nil
			})
		},
	}
}
