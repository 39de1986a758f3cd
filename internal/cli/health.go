package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Show server health and arena counters. Exits non-zero when the server reports degraded storage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			status, err := client.GetWithStatus("/api/v1/health", &result)
			if err != nil {
				return err
			}

			out := NewOutputTo(cfg.Output, cmd.OutOrStdout())
			out.Print(result)

			if status != http.StatusOK {
				return fmt.Errorf("server %s: storage %s", result.Status, result.Storage)
			}
			return nil
		},
	}
}
