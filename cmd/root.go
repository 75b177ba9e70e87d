// Package cmd implements the command-line interface for oriel.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oriel-video/oriel/constant"
	"github.com/oriel-video/oriel/filesystem"
	"github.com/oriel-video/oriel/key"
	"github.com/oriel-video/oriel/log"
	"github.com/oriel-video/oriel/style"
	"github.com/oriel-video/oriel/version"
	"github.com/oriel-video/oriel/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Persist playback positions to the localized resume history")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnWatch, rootCmd.PersistentFlags().Lookup("write-history")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Clean up localized temporary files on startup.
	go func() {
		_ = filesystem.API().RemoveAll(where.Temp())
	}()
}

// rootCmd defines the entry point for the oriel application.
var rootCmd = &cobra.Command{
	Use:   constant.Oriel,
	Short: "A playback session orchestrator for declaratively configured video playlists",
	Long: style.New().Italic(true).Foreground(style.HiRed).
		Render("    - A playback session orchestrator for declaratively configured video playlists"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", style.Fg(style.Red)("✗"), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
