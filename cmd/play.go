// Package cmd implements the command-line interface for oriel.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/oriel-video/oriel/cast"
	"github.com/oriel-video/oriel/controls"
	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/session"
	"github.com/oriel-video/oriel/state"
	"github.com/oriel-video/oriel/style"
	"github.com/oriel-video/oriel/timeline"
	"github.com/oriel-video/oriel/util"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("item", "i", "", "Manifest URL of the item to start with (defaults to the first item)")
	playCmd.Flags().IntP("watch", "w", 0, "Simulate the given number of seconds of playback before exiting")

	playCmd.SetOut(os.Stdout)
}

// playCmd runs a playback session against the scriptable in-memory engine. It exists to
// exercise a configuration end to end: establishment, state transitions and item advancement
// are printed as they happen.
var playCmd = &cobra.Command{
	Use:   "play <configuration.json>",
	Short: "Run a playback session for a declarative player configuration",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := media.Load(args[0])
		handleErr(err)

		var (
			item  = lo.Must(cmd.Flags().GetString("item"))
			watch = lo.Must(cmd.Flags().GetInt("watch"))
		)

		handleErr(play(cmd, cfg, item, watch))
	},
}

func play(cmd *cobra.Command, cfg *media.Configuration, startItem string, watch int) error {
	ctx := context.Background()

	eng := engineFromConfiguration(cfg)
	store := state.New()
	orc := session.New(store)
	defer orc.Close(ctx)

	unsubscribe := store.Subscribe(func(snap state.Snapshot) {
		cmd.Println(statusLine(snap))
	})
	defer unsubscribe()

	if err := orc.SetConfiguration(ctx, cfg); err != nil {
		return err
	}
	orc.SetEngine(ctx, eng)

	coordinator := cast.New(orc, engine.NewMemoryCast())
	coordinator.Start()
	defer coordinator.Close()

	if startItem != "" {
		if !orc.Cursor().Resolve(startItem) {
			return fmt.Errorf("item %s is not part of the configuration", startItem)
		}
	} else if err := orc.Cursor().LoadNewItem(0, 0); err != nil {
		return err
	}

	if snap := store.Snapshot(); snap.Error != nil {
		formatted := engine.Format(snap.Error)
		cmd.Println(style.ErrorTitle(formatted.Title))
		return fmt.Errorf("playback failed: %s", formatted.Message)
	}

	if item := orc.CurrentItem(); item != nil && item.Title != "" {
		cmd.Println(style.Title(item.Title))
	}

	ctl := controls.New(orc)
	m := eng.Media().(*engine.MemoryMedia)
	for i := 0; i < watch; i++ {
		m.AdvanceTime(1)

		if skip := store.Snapshot().ActiveSkip; skip != nil {
			cmd.Println(style.Faint(fmt.Sprintf("  skipping %q", skip.Title)))
			ctl.Skip()
		}
		if m.CurrentTime() >= m.Duration() && m.Duration() > 0 {
			m.FinishPlayback()
		}
	}
	if watch > 0 {
		cmd.Println(style.Faint(fmt.Sprintf("simulated %s of playback", util.Quantify(watch, "second", "seconds"))))
	}

	return nil
}

// engineFromConfiguration scripts a memory engine with one content entry per configured item,
// taking duration and liveness from the declarative item metadata.
func engineFromConfiguration(cfg *media.Configuration) *engine.Memory {
	eng := engine.NewMemory()
	for _, pl := range cfg.Source.Playlist {
		for _, item := range pl.Items {
			duration := item.Duration
			if duration == 0 && !item.IsLive {
				duration = 3600
			}
			eng.AddContent(item.VideoURL, engine.Content{
				Duration: duration,
				Live:     item.IsLive,
				Variants: []engine.VariantTrack{
					{ID: 1, Active: true, Width: 1920, Height: 1080, Bandwidth: 4000000, AudioID: 10, Language: "en", AudioCodec: "mp4a.40.2"},
					{ID: 2, Width: 1280, Height: 720, Bandwidth: 2500000, AudioID: 10, Language: "en", AudioCodec: "mp4a.40.2"},
				},
			})
		}
	}
	return eng
}

func statusLine(snap state.Snapshot) string {
	mode := "idle"
	switch {
	case snap.Error != nil:
		mode = "error"
	case snap.AdPlaying:
		mode = "ad"
	case snap.Buffering:
		mode = "buffering"
	case snap.Playing:
		mode = "playing"
	case snap.ContentLoaded:
		mode = "paused"
	}

	line := fmt.Sprintf("[%s] %s / %s",
		style.Bold(mode),
		timeline.FormatTime(snap.CurrentTime),
		timeline.FormatTime(snap.Duration),
	)

	if snap.Live {
		line += " " + style.Fg(style.Red)("LIVE")
	}
	if quality, ok := snap.ActiveVideoTrack().Get(); ok {
		line += " " + style.Faint(quality.Label)
	}
	if snap.Error != nil {
		line += " " + style.Fg(style.Red)(engine.Format(snap.Error).Title)
	}
	return line
}
