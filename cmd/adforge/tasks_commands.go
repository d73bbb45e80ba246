package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"adforge/internal/jobs"
	"adforge/internal/tasks"
)

func newTasksCommand(cmdCtx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and maintain the local task history",
	}

	tasksCmd.AddCommand(newTasksListCommand(cmdCtx))
	tasksCmd.AddCommand(newTasksShowCommand(cmdCtx))
	tasksCmd.AddCommand(newTasksClearCommand(cmdCtx))

	return tasksCmd
}

func newTasksListCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		statusFilter string
		lineage      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks grouped by age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *tasks.Store) error {
				var statuses []jobs.Status
				if statusFilter != "" {
					status, ok := jobs.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					statuses = append(statuses, status)
				}

				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No tasks recorded")
					return nil
				}

				if lineage {
					renderLineage(cmd, list)
					return nil
				}

				now := time.Now()
				for _, group := range tasks.GroupByTimeBucket(list, now) {
					fmt.Fprintf(out, "%s\n", group.Bucket.Label())
					rows := make([][]string, 0, len(group.Tasks))
					for _, task := range group.Tasks {
						prompt := truncate(task.Prompt, 44)
						if task.IsRemix() {
							prompt = fmt.Sprintf("%s (remix of %d)", prompt, task.RemixOfID)
						}
						rows = append(rows, []string{
							strconv.FormatInt(task.ID, 10),
							prompt,
							displayName(task.Platform),
							formatProgress(task),
							formatAge(task.CreatedAt, now),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Prompt", "Platform", "Status", "Created"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show tasks with this status")
	cmd.Flags().BoolVar(&lineage, "lineage", false, "Group tasks by remix lineage instead of age")
	return cmd
}

func renderLineage(cmd *cobra.Command, list []*tasks.Task) {
	out := cmd.OutOrStdout()
	for _, chain := range tasks.LineageChains(list) {
		fmt.Fprintf(out, "Task %d: %s\n", chain.Root.ID, truncate(chain.Root.Prompt, 60))
		for _, task := range chain.Chain {
			if task.ID == chain.Root.ID {
				continue
			}
			fmt.Fprintf(out, "  remix %d: %s [%s]\n", task.ID, truncate(task.Prompt, 52), formatProgress(task))
		}
	}
}

func newTasksShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return cmdCtx.withStore(func(store *tasks.Store) error {
				task, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %d not found", id)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Task:      %d\n", task.ID)
				fmt.Fprintf(out, "Job:       %s\n", task.JobID)
				fmt.Fprintf(out, "Prompt:    %s\n", task.Prompt)
				if task.EnhancedPrompt != "" {
					fmt.Fprintf(out, "Enhanced:  %s\n", task.EnhancedPrompt)
				}
				fmt.Fprintf(out, "Platform:  %s (%s, %ds, %s)\n",
					displayName(task.Platform), task.AspectRatio, task.DurationSeconds, displayName(task.Provider))
				fmt.Fprintf(out, "Status:    %s\n", formatProgress(task))
				if task.IsRemix() {
					fmt.Fprintf(out, "Remix of:  %d\n", task.RemixOfID)
				}
				if task.ResultURL != "" {
					fmt.Fprintf(out, "Result:    %s\n", task.ResultURL)
				}
				if task.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:     %s\n", task.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:   %s\n", task.CreatedAt.Local().Format(time.RFC1123))
				fmt.Fprintf(out, "Updated:   %s\n", task.UpdatedAt.Local().Format(time.RFC1123))
				return nil
			})
		},
	}
}

func newTasksClearCommand(cmdCtx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished tasks from the local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *tasks.Store) error {
				removed, err := store.Clear(cmd.Context(), all)
				if err != nil {
					return err
				}
				scope := "finished"
				if all {
					scope = "all"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s tasks\n", removed, scope)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every task, including open ones")
	return cmd
}
