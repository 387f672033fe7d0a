package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/style"
)

var sheetsOpts struct {
	format string
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List available stylesheets",
	Long: `List the bundled stylesheets and the user stylesheets found in the
sheets directory (default: ~/.config/umbra/sheets). A user sheet with the
same name as a bundled one replaces it.

Select a sheet with [theme] stylesheet = "<name>" in the config file.`,
	Args: cobra.NoArgs,
	RunE: runSheets,
}

func init() {
	rootCmd.AddCommand(sheetsCmd)

	sheetsCmd.Flags().StringVarP(&sheetsOpts.format, "format", "f", "plain",
		"Output format (plain, json)")
}

func runSheets(cmd *cobra.Command, args []string) error {
	c := getConfig()
	dir, err := c.SheetsDir()
	if err != nil {
		logger.Warn("failed to resolve sheets directory", "error", err)
	}

	sheets, err := style.ListSheets(dir)
	if err != nil {
		return fmt.Errorf("failed to list sheets: %w", err)
	}
	return writeSheets(os.Stdout, sheets, c.Theme.Stylesheet, sheetsOpts.format)
}

func writeSheets(w io.Writer, sheets []style.SheetInfo, selected, format string) error {
	if strings.ToLower(format) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sheets)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range sheets {
		marker := " "
		if s.Name == selected {
			marker = "*"
		}
		origin := "bundled"
		if !s.IsBundled {
			origin = s.Path
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", marker, s.Name, origin)
	}
	return tw.Flush()
}
