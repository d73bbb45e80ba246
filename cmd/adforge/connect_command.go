package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"adforge/internal/generate"
	"adforge/internal/oauth"
)

func newConnectCommand(cmdCtx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "connect <platform>",
		Short: "Connect an ad platform account via OAuth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, ok := generate.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unsupported platform %q (supported: %v)", args[0], generate.Platforms())
			}

			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}
			logger := cmdCtx.ensureLogger()
			out := cmd.OutOrStdout()

			states := oauth.NewStateStore()
			reconciler := oauth.NewReconciler(cfg, client, states, logger)
			listener, err := oauth.NewListener(cfg.OAuth.Listen, reconciler, logger)
			if err != nil {
				return fmt.Errorf("start callback listener: %w", err)
			}
			go func() { _ = listener.Serve() }()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = listener.Shutdown(shutdownCtx)
			}()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			state := states.Issue(string(platform))
			authURL, err := client.StartOAuth(runCtx, string(platform), state, listener.RedirectURI(string(platform)))
			if err != nil {
				return fmt.Errorf("start oauth flow: %w", err)
			}

			fmt.Fprintf(out, "Open this URL in your browser to connect %s:\n\n  %s\n\n", displayName(string(platform)), authURL)
			fmt.Fprintf(out, "Waiting for the callback on %s (Ctrl-C to cancel)\n", listener.Addr())

			var waitCh <-chan time.Time
			if timeout > 0 {
				timer := time.NewTimer(timeout)
				defer timer.Stop()
				waitCh = timer.C
			}

			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case <-waitCh:
				return fmt.Errorf("timed out after %s waiting for the oauth callback", timeout)
			case outcome := <-listener.Outcomes():
				if !outcome.OK() {
					return fmt.Errorf("connect failed (%s): %s", outcome.Kind, outcome.Message)
				}
				name := ""
				if outcome.Account != nil {
					name = outcome.Account.AccountName
				}
				fmt.Fprintf(out, "Connected %s account %s\n", displayName(string(platform)), name)
				if notifier := cmdCtx.notifier(); notifier != nil {
					_ = notifier.NotifyConnectCompleted(runCtx, string(platform), name)
				}
				return nil
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the callback (0 waits forever)")
	return cmd
}
