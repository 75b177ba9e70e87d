// Package cmd implements the command-line interface for oriel.
package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/oriel-video/oriel/filesystem"
	"github.com/oriel-video/oriel/style"
	"github.com/oriel-video/oriel/util"
	"github.com/oriel-video/oriel/where"
)

// clearTarget defines a filesystem resource eligible for automated cleanup.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

// clearTargets registry of all application artifacts that can be selectively cleared.
var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"resume history", "history", mo.Some("s"), where.History},
	{"log directory", "logs", mo.Some("l"), where.Logs},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

// clearCmd manages the cleanup of persisted application artifacts.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and persisted application artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if lo.Must(cmd.Flags().GetBool(target.argLong)) {
				anyCleared = true
				handleErr(filesystem.API().RemoveAll(target.location()))
				fmt.Printf("%s %s cleared\n", style.Fg(style.Green)("✓"), util.Capitalize(target.name))
			}
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
