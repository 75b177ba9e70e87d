// Package controls is the command surface of the player. Every command reads the live engine and
// store state at call time, so commands held by long-lived UI handlers never act on stale data.
package controls

import (
	"github.com/spf13/viper"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/key"
	"github.com/oriel-video/oriel/log"
	"github.com/oriel-video/oriel/session"
	"github.com/oriel-video/oriel/util"
)

// Controller exposes the player command set against one orchestrated session. Commands issued
// while no engine is installed are no-ops.
type Controller struct {
	orc *session.Orchestrator
}

// New returns a controller bound to the given orchestrator.
func New(orc *session.Orchestrator) *Controller {
	return &Controller{orc: orc}
}

// TogglePlay flips the suspension state of whatever is on screen. Ads and main content keep
// independent play/pause machines: while an ad is displayed the command targets the ad only.
func (c *Controller) TogglePlay() {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	if c.orc.Store().Snapshot().AdPlaying && eng.Ads().AdDisplayed() {
		ad := eng.Ads().CurrentAd()
		if ad == nil {
			return
		}
		if ad.Paused() {
			ad.Resume()
		} else {
			ad.Pause()
		}
		return
	}

	media := eng.Media()
	if media.Paused() {
		if err := media.Play(); err != nil {
			log.Warnf("play rejected by host: %v", err)
		}
	} else {
		media.Pause()
	}
}

// Seek moves the main content to an absolute position, clamped to the currently seekable range.
// For live DVR content the range is the engine's reported window, not [0, duration].
func (c *Controller) Seek(seconds float64) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	seekRange := eng.SeekRange()
	seconds = util.Clamp(seconds, seekRange.Start, seekRange.End)
	eng.Media().SetCurrentTime(seconds)
}

// SeekForward jumps ahead by the configured seek step.
func (c *Controller) SeekForward() {
	c.seekBy(viper.GetFloat64(key.PlayerSeekStep))
}

// SeekBackward jumps back by the configured seek step.
func (c *Controller) SeekBackward() {
	c.seekBy(-viper.GetFloat64(key.PlayerSeekStep))
}

func (c *Controller) seekBy(delta float64) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	c.Seek(eng.Media().CurrentTime() + delta)
}

// SetVolume applies a volume clamped to [0, 1]. Setting a volume while muted is treated as an
// implicit unmute request.
func (c *Controller) SetVolume(volume float64) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	volume = util.Clamp(volume, 0, 1)
	media := eng.Media()
	media.SetMuted(false)
	media.SetVolume(volume)
}

// ToggleMute flips the muted flag without touching the volume level.
func (c *Controller) ToggleMute() {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	media := eng.Media()
	media.SetMuted(!media.Muted())
}

// ToggleFullscreen enters fullscreen when the container does not own it and exits otherwise.
// Denial is a host policy outcome, logged and never surfaced as a playback error.
func (c *Controller) ToggleFullscreen() {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	container := eng.Media().Container()
	if container.FullscreenActive() {
		container.ExitFullscreen()
		return
	}
	if err := container.RequestFullscreen(); err != nil {
		log.Warnf("fullscreen request denied: %v", err)
	}
}

// Skip jumps to the end of the currently active skip interval. Without one it is a no-op.
func (c *Controller) Skip() {
	active := c.orc.Store().Snapshot().ActiveSkip
	if active == nil {
		return
	}
	c.Seek(active.EndTime)
}

// SelectTextTrack activates a text track and makes captions visible again if they were disabled.
func (c *Controller) SelectTextTrack(id int) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	if err := eng.SelectTextTrack(id); err != nil {
		log.Warnf("text track %d not selectable: %v", id, err)
		return
	}
	eng.SetTextTrackVisibility(true)
}

// DisableTextTrack hides captions while keeping the track selected, so re-enabling is cheap.
func (c *Controller) DisableTextTrack() {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	eng.SetTextTrackVisibility(false)
	c.orc.Store().SetTextTrackDisabled(true)
}

// EnableAutoABR hands variant selection back to the engine's adaptation logic.
func (c *Controller) EnableAutoABR() {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	eng.SetABREnabled(true)
	store := c.orc.Store()
	store.ClearPendingTracks()
	store.SetABREnabled(true)
}

// SelectVideoQuality forces a specific rendition height and disables ABR. The command preserves
// the active audio language: it prefers the variant carrying the target height in the current
// language, and only accepts a language change when no such variant exists.
func (c *Controller) SelectVideoQuality(trackID int) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	variants := eng.VariantTracks()
	target, ok := variantByID(variants, trackID)
	if !ok {
		log.Warnf("video quality selection: variant %d not found", trackID)
		return
	}

	activeLanguage := ""
	for _, v := range variants {
		if v.Active {
			activeLanguage = v.Language
		}
	}

	chosen := target
	for _, v := range variants {
		if v.Height == target.Height && v.Language == activeLanguage {
			chosen = v
			break
		}
	}

	eng.SetABREnabled(false)
	if err := eng.SelectVariantTrack(chosen.ID, true); err != nil {
		log.Warnf("video quality selection failed: %v", err)
		return
	}

	store := c.orc.Store()
	store.SetABREnabled(false)
	store.SetPendingVideoTrack(trackID)
}

// SelectAudioTrack activates a specific audio rendition while preserving the active video
// height, falling back to any variant of that audio's language when no height match exists.
// The optimistic store update makes the switch visible before the engine's resync event lands.
func (c *Controller) SelectAudioTrack(audioID int) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}

	variants := eng.VariantTracks()

	var target engine.VariantTrack
	found := false
	for _, v := range variants {
		if v.AudioID == audioID {
			target = v
			found = true
			break
		}
	}
	if !found {
		log.Warnf("audio selection: no variant carries audio %d", audioID)
		return
	}

	activeHeight := 0
	for _, v := range variants {
		if v.Active {
			activeHeight = v.Height
		}
	}

	chosen := target
	for _, v := range variants {
		if v.Language == target.Language && v.Height == activeHeight {
			chosen = v
			break
		}
	}

	if err := eng.SelectVariantTrack(chosen.ID, true); err != nil {
		log.Warnf("audio selection failed: %v", err)
		return
	}
	c.orc.Store().SetPendingAudioTrack(audioID)
}

// SelectAudioLanguage activates the best variant for a language, letting the engine choose the
// rendition. Prefer SelectAudioTrack when a concrete audio ID is known.
func (c *Controller) SelectAudioLanguage(language string) {
	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	if err := eng.SelectAudioLanguage(language); err != nil {
		log.Warnf("audio language %q not selectable: %v", language, err)
	}
}

func variantByID(variants []engine.VariantTrack, id int) (engine.VariantTrack, bool) {
	for _, v := range variants {
		if v.ID == id {
			return v, true
		}
	}
	return engine.VariantTrack{}, false
}
