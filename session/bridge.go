package session

import (
	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/state"
	"github.com/oriel-video/oriel/tracks"
)

// dvrThresholdSeconds is the minimum DVR window for a live stream to count as seekable. Below
// it the stream is live-edge only even though the engine technically reports a range.
const dvrThresholdSeconds = 30

// wireBridge attaches the one-directional event translation from engine, media element, ad
// manager and container into the state store. While an ad owns the screen, main-content
// play/pause/buffering/time events are suppressed; errors never are.
func (o *Orchestrator) wireBridge(item *media.VideoItem) []func() {
	eng := o.eng
	m := eng.Media()
	container := m.Container()
	store := o.store
	cursor := o.cursor

	resync := func(string, any) { o.resync(item) }

	return []func(){
		eng.AddListener(engine.EventError, func(_ string, data any) {
			if err, ok := data.(*engine.Error); ok {
				store.SetError(err)
			}
		}),
		eng.AddListener(engine.EventBuffering, func(_ string, data any) {
			if store.Snapshot().AdPlaying {
				return
			}
			if buffering, ok := data.(bool); ok {
				store.SetBuffering(buffering)
			}
		}),
		eng.AddListener(engine.EventManifestParsed, resync),
		eng.AddListener(engine.EventTracksChanged, resync),
		eng.AddListener(engine.EventAdaptation, resync),
		eng.AddListener(engine.EventTextTrackVisibility, resync),
		eng.AddListener(engine.EventTextChanged, resync),

		m.AddListener(engine.EventPlaying, func(string, any) {
			if store.Snapshot().AdPlaying {
				return
			}
			store.Update(func(snap *state.Snapshot) {
				snap.Playing = true
				snap.Buffering = false
			})
		}),
		m.AddListener(engine.EventPause, func(string, any) {
			if store.Snapshot().AdPlaying {
				return
			}
			store.SetPlaying(false)
		}),
		m.AddListener(engine.EventEnded, func(string, any) {
			store.SetPlaying(false)
			finishHistory(item, m)
			cursor.PlayNext()
		}),
		m.AddListener(engine.EventTimeUpdate, func(string, any) {
			if store.Snapshot().AdPlaying {
				return
			}
			now := m.CurrentTime()
			store.SetCurrentTime(now, activeSkip(item.SkipList, now))
		}),
		m.AddListener(engine.EventVolumeChange, func(string, any) {
			store.SetVolume(m.Volume(), m.Muted())
		}),
		m.AddListener(engine.EventLoadedMetadata, func(string, any) {
			if eng.IsLive() {
				return
			}
			duration := m.Duration()
			store.Update(func(snap *state.Snapshot) {
				snap.Live = false
				snap.Duration = duration
				snap.Seekable = duration > 0
				snap.SeekRange = engine.SeekRange{Start: 0, End: duration}
			})
		}),

		container.AddListener(engine.EventFullscreenChange, func(string, any) {
			store.SetFullscreen(container.FullscreenActive())
		}),
	}
}

// resync replaces all derived track state from the engine's authoritative snapshot, and for
// live content recomputes timing from the reported DVR window. It is idempotent under replay.
func (o *Orchestrator) resync(item *media.VideoItem) {
	eng := o.eng
	if eng == nil {
		return
	}

	if eng.IsLive() {
		seekRange := eng.SeekRange()
		window := seekRange.Width()
		o.store.Update(func(snap *state.Snapshot) {
			snap.Live = true
			snap.Seekable = window >= dvrThresholdSeconds
			snap.Duration = window
			snap.SeekRange = seekRange
		})
	}

	variants := eng.VariantTracks()
	texts := eng.TextTracks()
	text := tracks.MapText(texts)

	o.store.SetTracks(tracks.MapVideo(variants), tracks.MapAudio(variants), text)

	textSelected := false
	for _, track := range text {
		if track.Active {
			textSelected = true
		}
	}
	visible := eng.TextTrackVisible()
	abr := eng.ABREnabled()
	o.store.Update(func(snap *state.Snapshot) {
		snap.TextTrackDisabled = !textSelected || !visible
		snap.ABREnabled = abr
	})
}

// activeSkip returns the first configured skip interval containing the given time. Intervals
// may overlap; list order wins.
func activeSkip(skipList []media.SkipInterval, now float64) *media.SkipInterval {
	for i := range skipList {
		if now >= skipList[i].StartTime && now <= skipList[i].EndTime {
			return &skipList[i]
		}
	}
	return nil
}
