package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"adforge/internal/download"
	"adforge/internal/generate"
	"adforge/internal/jobs"
	"adforge/internal/poller"
	"adforge/internal/preflight"
	"adforge/internal/reconcile"
	"adforge/internal/tasks"
)

func newGenerateCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		imageURL   string
		aspectFlag string
		platform   string
		duration   int
		provider   string
		remixOf    int64
		noWait     bool
		saveFlag   bool
		skipChecks bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Submit an ad generation job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !skipChecks {
				results := preflight.RunAll(cmd.Context(), cfg, nil)
				if !preflight.Passed(results) {
					for _, result := range results {
						if !result.Passed {
							fmt.Fprintf(out, "preflight: %s: %s\n", result.Name, result.Detail)
						}
					}
					return errors.New("preflight checks failed")
				}
			}

			req := generate.Request{
				Prompt:          strings.TrimSpace(strings.Join(args, " ")),
				SourceImageURL:  strings.TrimSpace(imageURL),
				DurationSeconds: duration,
				RemixOfTaskID:   remixOf,
			}

			aspect, ok := generate.ParseAspectRatio(aspectFlag)
			if !ok {
				return fmt.Errorf("unsupported aspect ratio %q (supported: %v)", aspectFlag, generate.AspectRatios())
			}
			req.AspectRatio = aspect

			parsedPlatform, ok := generate.ParsePlatform(platform)
			if !ok {
				return fmt.Errorf("unsupported platform %q (supported: %v)", platform, generate.Platforms())
			}
			req.Platform = parsedPlatform

			parsedProvider, ok := generate.ParseProvider(provider)
			if !ok {
				return fmt.Errorf("unsupported provider %q (supported: %v)", provider, generate.Providers())
			}
			req.Provider = parsedProvider

			return cmdCtx.withStore(func(store *tasks.Store) error {
				if remixOf != 0 {
					parent, err := store.GetByID(cmd.Context(), remixOf)
					if err != nil {
						return err
					}
					if parent == nil {
						return fmt.Errorf("remix source task %d not found", remixOf)
					}
				}
				return runGenerate(cmd.Context(), cmdCtx, store, req, out, generateOptions{
					wait: !noWait,
					save: saveFlag,
				})
			})
		},
	}

	cmd.Flags().StringVar(&imageURL, "image", "", "Source image URL for image-to-video generation")
	cmd.Flags().StringVar(&aspectFlag, "aspect", "9:16", "Aspect ratio (1:1, 9:16, 16:9, 4:5)")
	cmd.Flags().StringVar(&platform, "platform", "tiktok", "Target ad platform (meta, tiktok)")
	cmd.Flags().IntVar(&duration, "duration", 15, "Clip duration in seconds (15, 30, 60)")
	cmd.Flags().StringVar(&provider, "provider", "runway", "Generation provider (runway, kling, veo)")
	cmd.Flags().Int64Var(&remixOf, "remix-of", 0, "Local task ID to remix")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Submit without waiting for completion")
	cmd.Flags().BoolVar(&saveFlag, "save", false, "Download the artifact once the job completes")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip preflight checks")
	return cmd
}

type generateOptions struct {
	wait bool
	save bool
}

func runGenerate(ctx context.Context, cmdCtx *commandContext, store *tasks.Store, req generate.Request, out io.Writer, opts generateOptions) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	client, err := cmdCtx.apiClient()
	if err != nil {
		return err
	}
	logger := cmdCtx.ensureLogger()

	interval := time.Duration(cfg.Poll.JobInterval) * time.Second
	watcher := poller.New(client, interval, logger)

	done := make(chan reconcile.View, 1)
	hooks := reconcile.Hooks{
		RefreshBalance: func(ctx context.Context) {
			if balance, err := client.Credits(ctx); err == nil {
				fmt.Fprintf(out, "Credits: %d\n", balance.Credits)
			}
		},
		OnProgress: func(view reconcile.View) {
			label := fmt.Sprintf("%.0f%%", view.ProgressPercent)
			if step := strings.TrimSpace(view.CurrentStep); step != "" {
				label = fmt.Sprintf("%s (%s)", label, step)
			}
			fmt.Fprintf(out, "progress: %s\n", label)
		},
		OnCompleted: func(view reconcile.View) { done <- view },
		OnFailed:    func(view reconcile.View) { done <- view },
	}

	machine := reconcile.New(client, watcher, hooks, logger)
	defer machine.Teardown()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := machine.Submit(runCtx, req); err != nil {
		return err
	}

	view := machine.View()
	fmt.Fprintf(out, "Submitted job %s\n", view.JobID)
	if view.EnhancedPrompt != "" && view.EnhancedPrompt != req.Prompt {
		fmt.Fprintf(out, "Enhanced prompt: %s\n", view.EnhancedPrompt)
	}
	fmt.Fprintf(out, "Credits remaining: %d\n", view.CreditsRemaining)

	task, err := store.Create(runCtx, tasks.NewTaskParams{
		JobID:           view.JobID,
		Prompt:          req.Prompt,
		EnhancedPrompt:  view.EnhancedPrompt,
		AspectRatio:     string(req.AspectRatio),
		Platform:        string(req.Platform),
		DurationSeconds: req.DurationSeconds,
		Provider:        string(req.Provider),
		RemixOfID:       req.RemixOfTaskID,
	})
	if err != nil {
		return fmt.Errorf("record task: %w", err)
	}

	if !opts.wait {
		fmt.Fprintf(out, "Task %d queued; run 'adforge watch' to follow it\n", task.ID)
		return nil
	}

	select {
	case <-runCtx.Done():
		fmt.Fprintln(out, "Interrupted; the job keeps running server-side. Run 'adforge watch' to resume.")
		return nil
	case final := <-done:
		return finishGenerate(ctx, cmdCtx, store, task, final, out, opts)
	}
}

func finishGenerate(ctx context.Context, cmdCtx *commandContext, store *tasks.Store, task *tasks.Task, view reconcile.View, out io.Writer, opts generateOptions) error {
	snapshot := &jobs.Snapshot{
		JobID:           view.JobID,
		ProgressPercent: view.ProgressPercent,
		CurrentStep:     view.CurrentStep,
		Result:          view.Result,
		ErrorMessage:    view.ErrorMessage,
	}
	if view.State == reconcile.StateCompleted {
		snapshot.Status = jobs.StatusCompleted
	} else {
		snapshot.Status = jobs.StatusFailed
	}
	if err := store.ApplySnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("record result: %w", err)
	}

	if view.State != reconcile.StateCompleted {
		return fmt.Errorf("generation failed: %s", view.ErrorMessage)
	}

	fmt.Fprintf(out, "Generation complete: %s\n", view.Result.URL)
	if notifier := cmdCtx.notifier(); notifier != nil {
		_ = notifier.NotifyGenerationCompleted(ctx, task.Prompt, view.Result.URL)
	}
	if !opts.save {
		return nil
	}

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	saved, err := store.GetByID(ctx, task.ID)
	if err != nil {
		return err
	}
	d := download.New(cfg, cmdCtx.ensureLogger())
	path, err := d.Save(ctx, saved)
	if err != nil {
		return fmt.Errorf("download artifact: %w", err)
	}
	fmt.Fprintf(out, "Saved to %s\n", path)
	return nil
}
