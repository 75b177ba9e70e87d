// Package state holds the normalized playback state of one player session. It is the single
// source of truth the UI reads from: pure data plus named mutations, with no knowledge of how
// the engine produces the values it stores.
//
// Each player owns its own Store; there is no process-wide state.
package state

import (
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/media"
)

// CastState is the casting handoff state machine position.
type CastState string

const (
	CastNoDevicesAvailable CastState = "NO_DEVICES_AVAILABLE"
	CastNotConnected       CastState = "NOT_CONNECTED"
	CastConnecting         CastState = "CONNECTING"
	CastConnected          CastState = "CONNECTED"
)

// VideoTrack is a UI-facing video quality descriptor derived from the engine's variant list.
type VideoTrack struct {
	ID        int
	Active    bool
	Width     int
	Height    int
	Bandwidth int
	FrameRate float64
	HDR       string
	VR        bool
	Label     string
}

// AudioTrack is a UI-facing audio option. Tracks are distinct per (language, codec) pair, so
// the same language may appear more than once with different codecs.
type AudioTrack struct {
	ID       int
	Active   bool
	Language string
	Codec    string
	Label    string
}

// TextTrack is a UI-facing subtitle/caption option.
type TextTrack struct {
	ID       int
	Active   bool
	Language string
	Label    string
	Kind     string
}

// Snapshot is a copy of the full playback state at one point in time. Slices in a snapshot are
// owned by the caller and safe to retain.
type Snapshot struct {
	Ready             bool
	ContentLoaded     bool
	Playing           bool
	Buffering         bool
	Muted             bool
	Live              bool
	Seekable          bool
	AdPlaying         bool
	Fullscreen        bool
	ABREnabled        bool
	TextTrackDisabled bool
	IsPlaylistOpen    bool

	CurrentTime float64
	Duration    float64
	Volume      float64
	SeekRange   engine.SeekRange

	Error      *engine.Error
	ActiveSkip *media.SkipInterval

	AdCuePoints []float64

	CastState      CastState
	CastDeviceName string

	VideoTracks []VideoTrack
	AudioTracks []AudioTrack
	TextTracks  []TextTrack

	// Components is the merged control-visibility map for the active configuration.
	Components map[string]bool

	// PendingVideoTrack and PendingAudioTrack carry an optimistic selection that has been sent
	// to the engine but not yet confirmed by a track resync. While present, the matching track
	// is reported active in the snapshot's track lists.
	PendingVideoTrack mo.Option[int]
	PendingAudioTrack mo.Option[int]
}

// ActiveVideoTrack returns the active entry of the video ladder, if any.
func (s Snapshot) ActiveVideoTrack() mo.Option[VideoTrack] {
	for _, track := range s.VideoTracks {
		if track.Active {
			return mo.Some(track)
		}
	}
	return mo.None[VideoTrack]()
}

// ActiveAudioTrack returns the active audio option, if any.
func (s Snapshot) ActiveAudioTrack() mo.Option[AudioTrack] {
	for _, track := range s.AudioTracks {
		if track.Active {
			return mo.Some(track)
		}
	}
	return mo.None[AudioTrack]()
}

// ActiveTextTrack returns the selected text track, if any. A selected track may still be
// invisible when TextTrackDisabled is set.
func (s Snapshot) ActiveTextTrack() mo.Option[TextTrack] {
	for _, track := range s.TextTracks {
		if track.Active {
			return mo.Some(track)
		}
	}
	return mo.None[TextTrack]()
}

// optimisticSelectionTTL bounds how long an unconfirmed track selection stays visible before
// the store falls back to the engine's authoritative state.
const optimisticSelectionTTL = 3 * time.Second

type pendingSelection struct {
	id      int
	expires time.Time
}

// Store holds the mutable playback state and its subscribers.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	clock  func() time.Time
	nextID int
	subs   map[int]func(Snapshot)

	pendingVideo mo.Option[pendingSelection]
	pendingAudio mo.Option[pendingSelection]
}

// New returns a store in the idle baseline: nothing loaded, full volume, ABR on, captions
// enabled and no cast devices known.
func New() *Store {
	return &Store{
		snap: Snapshot{
			Volume:     1,
			ABREnabled: true,
			CastState:  CastNoDevicesAvailable,
		},
		clock: time.Now,
	}
}

// Snapshot returns a copy of the current state with the optimistic selection overlay applied.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	s.expireOverlaysLocked()

	out := s.snap
	out.AdCuePoints = append([]float64(nil), s.snap.AdCuePoints...)
	out.VideoTracks = append([]VideoTrack(nil), s.snap.VideoTracks...)
	out.AudioTracks = append([]AudioTrack(nil), s.snap.AudioTracks...)
	out.TextTracks = append([]TextTrack(nil), s.snap.TextTracks...)
	if s.snap.Components != nil {
		out.Components = make(map[string]bool, len(s.snap.Components))
		for name, visible := range s.snap.Components {
			out.Components[name] = visible
		}
	}

	if pending, ok := s.pendingVideo.Get(); ok {
		out.PendingVideoTrack = mo.Some(pending.id)
		for i := range out.VideoTracks {
			out.VideoTracks[i].Active = out.VideoTracks[i].ID == pending.id
		}
	}
	if pending, ok := s.pendingAudio.Get(); ok {
		out.PendingAudioTrack = mo.Some(pending.id)
		for i := range out.AudioTracks {
			out.AudioTracks[i].Active = out.AudioTracks[i].ID == pending.id
		}
	}
	return out
}

func (s *Store) expireOverlaysLocked() {
	now := s.clock()
	if pending, ok := s.pendingVideo.Get(); ok && now.After(pending.expires) {
		s.pendingVideo = mo.None[pendingSelection]()
	}
	if pending, ok := s.pendingAudio.Get(); ok && now.After(pending.expires) {
		s.pendingAudio = mo.None[pendingSelection]()
	}
}

// Subscribe registers a listener invoked with a fresh snapshot after every mutation. The
// returned function removes the subscription and is idempotent.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func(Snapshot))
	}
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Update applies an arbitrary mutation to the state and notifies subscribers.
func (s *Store) Update(mutate func(*Snapshot)) {
	s.mu.Lock()
	mutate(&s.snap)
	s.notifyLocked()
}

// notifyLocked snapshots under the lock, releases it, then fans out. It must be called with
// the lock held and leaves it released.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// ResetForLoad restores the loading baseline before an asynchronous load begins, so no state
// from the previous item survives into the new session's first render.
func (s *Store) ResetForLoad() {
	s.mu.Lock()
	s.snap.Ready = true
	s.snap.ContentLoaded = false
	s.snap.Playing = false
	s.snap.Buffering = true
	s.snap.Error = nil
	s.snap.CurrentTime = 0
	s.snap.Duration = 0
	s.snap.AdPlaying = false
	s.snap.ActiveSkip = nil
	s.pendingVideo = mo.None[pendingSelection]()
	s.pendingAudio = mo.None[pendingSelection]()
	s.notifyLocked()
}

// SetContentLoaded marks the current item as loaded.
func (s *Store) SetContentLoaded(loaded bool) {
	s.Update(func(snap *Snapshot) { snap.ContentLoaded = loaded })
}

// SetPlaying records the main content's play/pause state.
func (s *Store) SetPlaying(playing bool) {
	s.Update(func(snap *Snapshot) { snap.Playing = playing })
}

// SetBuffering records whether playback is stalled on buffering.
func (s *Store) SetBuffering(buffering bool) {
	s.Update(func(snap *Snapshot) { snap.Buffering = buffering })
}

// SetError records a fatal playback error and halts the playing/buffering flags.
func (s *Store) SetError(err *engine.Error) {
	s.Update(func(snap *Snapshot) {
		snap.Error = err
		snap.Playing = false
		snap.Buffering = false
	})
}

// SetCurrentTime records the playback position together with the skip interval containing it.
func (s *Store) SetCurrentTime(seconds float64, activeSkip *media.SkipInterval) {
	s.Update(func(snap *Snapshot) {
		snap.CurrentTime = seconds
		snap.ActiveSkip = activeSkip
	})
}

// SetTiming records the duration, seekable window and seekability in one mutation.
func (s *Store) SetTiming(duration float64, seekRange engine.SeekRange, seekable bool) {
	s.Update(func(snap *Snapshot) {
		snap.Duration = duration
		snap.SeekRange = seekRange
		snap.Seekable = seekable
	})
}

// SetLive records whether the loaded content is a live presentation.
func (s *Store) SetLive(live bool) {
	s.Update(func(snap *Snapshot) { snap.Live = live })
}

// SetVolume records the media element's volume and muted flags.
func (s *Store) SetVolume(volume float64, muted bool) {
	s.Update(func(snap *Snapshot) {
		snap.Volume = volume
		snap.Muted = muted
	})
}

// SetFullscreen records the container's fullscreen state.
func (s *Store) SetFullscreen(fullscreen bool) {
	s.Update(func(snap *Snapshot) { snap.Fullscreen = fullscreen })
}

// SetAdPlaying records whether an ad break currently owns the screen.
func (s *Store) SetAdPlaying(playing bool) {
	s.Update(func(snap *Snapshot) { snap.AdPlaying = playing })
}

// SetAdCuePoints replaces the list of ad cue positions.
func (s *Store) SetAdCuePoints(cues []float64) {
	s.Update(func(snap *Snapshot) {
		snap.AdCuePoints = append([]float64(nil), cues...)
	})
}

// SetCastState records the casting machine position and the connected device name.
func (s *Store) SetCastState(castState CastState, deviceName string) {
	s.Update(func(snap *Snapshot) {
		snap.CastState = castState
		snap.CastDeviceName = deviceName
	})
}

// SetABREnabled records whether automatic quality adaptation is active.
func (s *Store) SetABREnabled(enabled bool) {
	s.Update(func(snap *Snapshot) { snap.ABREnabled = enabled })
}

// SetTextTrackDisabled records whether caption rendering is turned off.
func (s *Store) SetTextTrackDisabled(disabled bool) {
	s.Update(func(snap *Snapshot) { snap.TextTrackDisabled = disabled })
}

// SetComponents installs the merged control-visibility map of a new configuration.
func (s *Store) SetComponents(components map[string]bool) {
	s.Update(func(snap *Snapshot) { snap.Components = components })
}

// SetPlaylistOpen records whether the playlist panel is open.
func (s *Store) SetPlaylistOpen(open bool) {
	s.Update(func(snap *Snapshot) { snap.IsPlaylistOpen = open })
}

// SetTracks replaces all three derived track lists from an authoritative engine resync. A
// pending optimistic selection is dropped once the authoritative state converges on it.
func (s *Store) SetTracks(video []VideoTrack, audio []AudioTrack, text []TextTrack) {
	s.mu.Lock()
	s.snap.VideoTracks = append([]VideoTrack(nil), video...)
	s.snap.AudioTracks = append([]AudioTrack(nil), audio...)
	s.snap.TextTracks = append([]TextTrack(nil), text...)

	if pending, ok := s.pendingVideo.Get(); ok && videoActive(video, pending.id) {
		s.pendingVideo = mo.None[pendingSelection]()
	}
	if pending, ok := s.pendingAudio.Get(); ok && audioActive(audio, pending.id) {
		s.pendingAudio = mo.None[pendingSelection]()
	}
	s.notifyLocked()
}

func videoActive(tracks []VideoTrack, id int) bool {
	for _, track := range tracks {
		if track.ID == id && track.Active {
			return true
		}
	}
	return false
}

func audioActive(tracks []AudioTrack, id int) bool {
	for _, track := range tracks {
		if track.ID == id && track.Active {
			return true
		}
	}
	return false
}

// SetPendingVideoTrack installs an optimistic video selection shown until the engine confirms
// it or the conservative time bound elapses.
func (s *Store) SetPendingVideoTrack(id int) {
	s.mu.Lock()
	s.pendingVideo = mo.Some(pendingSelection{id: id, expires: s.clock().Add(optimisticSelectionTTL)})
	s.notifyLocked()
}

// SetPendingAudioTrack installs an optimistic audio selection shown until the engine confirms
// it or the conservative time bound elapses.
func (s *Store) SetPendingAudioTrack(id int) {
	s.mu.Lock()
	s.pendingAudio = mo.Some(pendingSelection{id: id, expires: s.clock().Add(optimisticSelectionTTL)})
	s.notifyLocked()
}

// ClearPendingTracks drops any optimistic selections without waiting for engine convergence.
// Used when selection authority moves back to the engine, e.g. on re-enabling ABR.
func (s *Store) ClearPendingTracks() {
	s.mu.Lock()
	s.pendingVideo = mo.None[pendingSelection]()
	s.pendingAudio = mo.None[pendingSelection]()
	s.notifyLocked()
}
