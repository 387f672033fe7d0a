package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/root"
)

var setOpts struct {
	quiet bool
}

var setCmd = &cobra.Command{
	Use:   "set dark|light|auto",
	Short: "Set the root theme attribute",
	Long: `Set the theme attribute on the root state file.

  dark    force the dark theme
  light   force the light theme
  auto    remove the attribute so the OS preference applies

Every running umbra instance watching the same state file picks up the
change immediately.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{root.ThemeDark, root.ThemeLight, root.ThemeAuto},
	RunE:      runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().BoolVarP(&setOpts.quiet, "quiet", "q", false,
		"Suppress output")
}

func runSet(cmd *cobra.Command, args []string) error {
	value, present, err := root.ParseThemeValue(args[0])
	if err != nil {
		return err
	}

	c := getConfig()
	path, err := c.StatePath()
	if err != nil {
		return fmt.Errorf("failed to resolve state path: %w", err)
	}

	state, err := root.SetTheme(path, c.Theme.Attribute, value, present, changeSource)
	if err != nil {
		return err
	}
	logger.Debug("theme attribute written", "path", path, "attribute", c.Theme.Attribute, "attributes", state.Attributes)

	if !setOpts.quiet {
		if present {
			fmt.Printf("%s=%s\n", c.Theme.Attribute, value)
		} else {
			fmt.Printf("%s unset (following OS preference)\n", c.Theme.Attribute)
		}
	}
	return nil
}
