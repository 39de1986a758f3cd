package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions [identity]",
		Short: "List active sessions, or show the session of one player",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutputTo(cfg.Output, cmd.OutOrStdout())

			if len(args) == 1 {
				var result Session
				path := fmt.Sprintf("/api/v1/players/%s/session", url.PathEscape(args[0]))
				if err := client.Get(path, &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result SessionList
			if err := client.Get("/api/v1/sessions", &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <identity>",
		Short: "Show a player's win/loss record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Record

			path := fmt.Sprintf("/api/v1/players/%s/record", url.PathEscape(args[0]))
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutputTo(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newResultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recent battle results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			var result ResultList
			if err := client.Get(fmt.Sprintf("/api/v1/results?limit=%d", limit), &result); err != nil {
				return err
			}

			out := NewOutputTo(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")

	return cmd
}
