package main

import (
	"fmt"
	"inbox-lab/domain"
	"inbox-lab/repositories"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:           "credinspect",
		Short:         "Inspect stored platform sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./data/credentials", "path to badger DB")

	cmd.AddCommand(newListCmd(&dbPath))
	cmd.AddCommand(newDeleteCmd(&dbPath))
	return cmd
}

func newListCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*dbPath, false)
			if err != nil {
				return fmt.Errorf("open badger: %w", err)
			}
			defer db.Close()

			repository := repositories.NewCredentialRepository(db, logs.GetLoggerFromString("ERROR"))
			records, err := repository.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"User", "Saved At", "Size", "Preview"})
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(true)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetCenterSeparator("")
			table.SetColumnSeparator("")
			table.SetRowSeparator("")
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetTablePadding("\t")

			for _, record := range records {
				table.Append([]string{
					string(record.UserID),
					record.SavedAt.Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%d B", len(record.Credential)),
					preview(record.Credential),
				})
			}
			table.Render()

			summary := fmt.Sprintf("%d stored credential(s)", len(records))
			if len(records) == 0 {
				summary = color.New(color.FgYellow).Render(summary)
			}
			fmt.Fprintln(out, summary)
			return nil
		},
	}
}

func newDeleteCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user>",
		Short: "Delete the stored credential of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*dbPath, true)
			if err != nil {
				return fmt.Errorf("open badger: %w", err)
			}
			defer db.Close()

			repository := repositories.NewCredentialRepository(db, logs.GetLoggerFromString("ERROR"))
			if err := repository.Delete(cmd.Context(), domain.UserID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgGreen).Render("Deleted credential of "+args[0]))
			return nil
		},
	}
}

// preview shows the start of a plaintext credential and masks binary ones.
func preview(credential domain.Credential) string {
	s := string(credential)
	if !utf8.ValidString(s) || strings.IndexFunc(s, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		return color.New(color.FgCyan).Render("<sealed>")
	}
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return s
}

func openDB(path string, writable bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(!writable).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
