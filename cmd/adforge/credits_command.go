package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreditsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show the current credit balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := cmdCtx.apiClient()
			if err != nil {
				return err
			}

			balance, err := client.Credits(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Credits: %d\n", balance.Credits)
			if balance.Low(cfg.Credits.LowBalanceThreshold) {
				fmt.Fprintf(out, "Balance is below the configured threshold (%d)\n", cfg.Credits.LowBalanceThreshold)
				if notifier := cmdCtx.notifier(); notifier != nil {
					_ = notifier.NotifyLowBalance(cmd.Context(), balance.Credits, cfg.Credits.LowBalanceThreshold)
				}
			}
			return nil
		},
	}
}
