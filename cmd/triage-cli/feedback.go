package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/onco-triage-server/internal/config"
	"github.com/onco-triage-server/internal/feedback"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Export or import clinician feedback",
	}
	cmd.PersistentFlags().String("db", "", "feedback database file (defaults to the lite server's store)")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all feedback as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return store.ExportJSON(cmd.Context(), w)
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load feedback from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			imported, skipped, err := store.ImportJSON(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

func openStore(cmd *cobra.Command) (feedback.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		lite := config.LoadLiteConfig()
		if err := lite.EnsureDataDir(); err != nil {
			return nil, err
		}
		path = lite.FeedbackDBPath()
	}
	store, err := feedback.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
