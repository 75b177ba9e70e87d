// Package engine defines the interface boundary to the adaptive-streaming playback engine and its
// attendant collaborators: the media surface, the ad manager, and the cast sender proxy.
//
// The engine itself is an external dependency. This package describes the operations the
// orchestration core consumes (configure, load, unload, track queries, event emission) and ships
// a fully scriptable in-memory implementation used by tests and the demo CLI.
package engine

import "context"

// Listener is the function signature for engine and media event notifications.
type Listener func(event string, data any)

// SeekRange is the currently seekable time window. For on-demand content it is [0, duration];
// for live content it is the DVR window reported by the engine.
type SeekRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width returns the temporal width of the range in seconds.
func (r SeekRange) Width() float64 {
	return r.End - r.Start
}

// Preferences are per-item presentation hints applied before loading content.
type Preferences struct {
	PosterURL              string
	StartMuted             bool
	PreferredAudioLanguage string
	PreferredTextLanguage  string
}

// Engine encapsulates the required capabilities of an adaptive-streaming playback backend.
//
// All track state returned by the engine is an immutable value snapshot; callers must re-query
// after every track-change event rather than holding references across events.
type Engine interface {
	// Configure applies a full engine configuration, replacing the previous one.
	Configure(cfg Config)

	// Configuration returns the engine's currently applied configuration.
	Configuration() Config

	// ApplyPreferences applies per-item presentation hints (poster, start-muted, preferred languages).
	ApplyPreferences(prefs Preferences)

	// Load starts a new playback session for the given manifest URI at the given start position.
	Load(ctx context.Context, uri string, startTime float64) error

	// Unload tears down the current playback session. Unloading an idle engine is a no-op.
	Unload(ctx context.Context) error

	// IsLive reports whether the loaded content is a live presentation.
	IsLive() bool

	// SeekRange retrieves the currently seekable window.
	SeekRange() SeekRange

	// VariantTracks returns a snapshot of all selectable variant (video+audio) tracks.
	VariantTracks() []VariantTrack

	// TextTracks returns a snapshot of all text (subtitle/caption) tracks.
	TextTracks() []TextTrack

	// SelectVariantTrack forces playback of a specific variant. When clearBuffer is set the engine
	// discards buffered segments for a faster visible switch.
	SelectVariantTrack(id int, clearBuffer bool) error

	// SelectTextTrack activates a specific text track.
	SelectTextTrack(id int) error

	// SelectAudioLanguage activates the best variant for a language, letting the engine pick quality.
	SelectAudioLanguage(language string) error

	// SetTextTrackVisibility toggles caption rendering without changing the selected track.
	SetTextTrackVisibility(visible bool)

	// TextTrackVisible reports whether captions are currently rendered.
	TextTrackVisible() bool

	// SetABREnabled toggles automatic bitrate adaptation.
	SetABREnabled(enabled bool)

	// ABREnabled reports whether automatic bitrate adaptation is active.
	ABREnabled() bool

	// AddListener subscribes to an engine event and returns a function that removes the subscription.
	AddListener(event string, fn Listener) (remove func())

	// Networking returns the request filter registry used to mutate outgoing engine requests.
	Networking() *FilterRegistry

	// Media returns the media surface this engine renders into.
	Media() Media

	// Ads returns the engine's ad manager.
	Ads() AdManager
}

// Media is the playback surface: the media element plus its enclosing player container.
type Media interface {
	// Play resumes playback. It returns an error when the host denies playback start
	// (e.g. browser autoplay policy); callers decide whether that is fatal.
	Play() error

	// Pause suspends playback.
	Pause()

	// Paused reports the current suspension state.
	Paused() bool

	// CurrentTime retrieves the current absolute playback position in seconds.
	CurrentTime() float64

	// SetCurrentTime transitions the playback position to an absolute timestamp in seconds.
	SetCurrentTime(seconds float64)

	// Duration retrieves the total temporal length of the active media in seconds.
	Duration() float64

	// Volume retrieves the current volume in [0, 1].
	Volume() float64

	// SetVolume applies a volume in [0, 1].
	SetVolume(volume float64)

	// Muted reports the muted flag.
	Muted() bool

	// SetMuted applies the muted flag.
	SetMuted(muted bool)

	// SetPoster applies a poster image URL shown before first frame.
	SetPoster(url string)

	// AddListener subscribes to a media event and returns a function that removes the subscription.
	AddListener(event string, fn Listener) (remove func())

	// Container returns the enclosing player container (fullscreen surface).
	Container() Container
}

// Container is the player's outer element, owning fullscreen state.
type Container interface {
	// RequestFullscreen asks the host to enter fullscreen. Denial is expected under some host
	// policies and is returned as an error, never raised as a playback error.
	RequestFullscreen() error

	// ExitFullscreen leaves fullscreen mode.
	ExitFullscreen()

	// FullscreenActive reports whether the container currently owns fullscreen.
	FullscreenActive() bool

	// AddListener subscribes to container events (fullscreenchange).
	AddListener(event string, fn Listener) (remove func())
}

// AdManager drives the overlaid ad-break sub-session. Ads and main content have independent
// play/pause state machines and must never be conflated.
type AdManager interface {
	// Init binds the ad subsystem to the ad overlay container and the media surface.
	Init(adContainer any, media Media)

	// RequestAds issues a single ad request for the given tag URL.
	RequestAds(tagURL string) error

	// AdDisplayed reports whether an ad is currently displayed.
	AdDisplayed() bool

	// CurrentAd returns the displayed ad, or nil when none is active.
	CurrentAd() Ad

	// AddListener subscribes to ad events and returns a function that removes the subscription.
	AddListener(event string, fn Listener) (remove func())

	// Release discards the ad sub-session. Releasing an idle manager is a no-op.
	Release()
}

// Ad is a single displayed advertisement with its own suspension state.
type Ad interface {
	Paused() bool
	Pause()
	Resume()
}

// CastProxy is the sender-side casting subsystem.
type CastProxy interface {
	// CanCast reports whether at least one receiver device is reachable.
	CanCast() bool

	// IsCasting reports whether a remote session currently owns playback.
	IsCasting() bool

	// ReceiverName returns the display name of the connected receiver, or "" when not connected.
	ReceiverName() string

	// SetAppData supplies the serialized session description consumed by the receiver.
	SetAppData(data map[string]any)

	// Cast initiates a remote session starting at the given position. User cancellation is
	// reported as ErrCastCancelled.
	Cast(ctx context.Context, startTime float64) error

	// SuggestDisconnect asks the remote session to end, handing playback back to the local device.
	SuggestDisconnect()

	// AddListener subscribes to cast status events.
	AddListener(event string, fn Listener) (remove func())
}
