package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the navigation journal",
	Long:  `List, show and remove journal sessions of the journal selected by --config.`,
}

var journalLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List journal sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd, func(ctx context.Context, j history.Journal) error {
			sessions, err := j.Sessions(ctx)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
			}
			return nil
		})
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print the entries of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		last, _ := cmd.Flags().GetBool("last")
		return withJournal(cmd, func(ctx context.Context, j history.Journal) error {
			var out any
			if last {
				entry, err := j.Last(ctx, args[0])
				if err != nil {
					return fmt.Errorf("session %q: %w", args[0], err)
				}
				out = entry
			} else {
				entries, err := j.List(ctx, args[0])
				if err != nil {
					return fmt.Errorf("session %q: %w", args[0], err)
				}
				out = entries
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal entries: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var journalRmCmd = &cobra.Command{
	Use:   "rm <session>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd, func(ctx context.Context, j history.Journal) error {
			var errs []error
			for _, session := range args {
				if err := j.DeleteSession(ctx, session); err != nil {
					errs = append(errs, fmt.Errorf("remove %q: %w", session, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", session)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	journalShowCmd.Flags().Bool("last", false, "Only print the most recent entry")
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalLsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalRmCmd)
}

// withJournal opens the journal selected by --config for the duration of fn.
func withJournal(cmd *cobra.Command, fn func(context.Context, history.Journal) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	j, err := cfg.Journal.OpenJournal()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return errors.New("no journal configured: set journal.driver in the config")
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, j)
}
