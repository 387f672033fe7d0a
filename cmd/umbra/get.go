package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/umbra/internal/source"
)

var getOpts struct {
	format string
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current theme",
	Long: `Print the derived theme and the inputs it was derived from.

Formats:
  plain   "dark" or "light" (default)
  json    all inputs as a JSON object
  yaml    all inputs as YAML

Examples:
  # Use in a script
  [ "$(umbra get)" = dark ] && echo "night mode"

  # Inspect where the value came from
  umbra get --format yaml`,
	Args: cobra.NoArgs,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := openApp(ctx, getConfig(), logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	return writeInputs(os.Stdout, a.source.Inputs(), getOpts.format)
}

// writeInputs renders in in the requested format.
func writeInputs(w io.Writer, in source.Inputs, format string) error {
	switch strings.ToLower(format) {
	case "", "plain":
		_, err := fmt.Fprintln(w, themeName(in.Dark))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(in)
	default:
		return fmt.Errorf("unknown format %q (want plain, json or yaml)", format)
	}
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
