package engine

// Engine events. The data argument passed to listeners is noted per event.
const (
	// EventError carries a *Error describing a fatal playback failure.
	EventError = "error"
	// EventBuffering carries a bool: true while the engine stalls to buffer.
	EventBuffering = "buffering"
	// EventManifestParsed fires once the manifest has been parsed after a load.
	EventManifestParsed = "manifestparsed"
	// EventTracksChanged fires when the set of selectable tracks changes.
	EventTracksChanged = "trackschanged"
	// EventAdaptation fires when the active variant changes (ABR or explicit selection).
	EventAdaptation = "adaptation"
	// EventTextTrackVisibility fires when caption visibility toggles.
	EventTextTrackVisibility = "texttrackvisibility"
	// EventTextChanged fires when the active text track changes.
	EventTextChanged = "textchanged"
)

// Media events.
const (
	EventPlaying        = "playing"
	EventPause          = "pause"
	EventEnded          = "ended"
	EventTimeUpdate     = "timeupdate"
	EventVolumeChange   = "volumechange"
	EventLoadedMetadata = "loadedmetadata"
)

// Container events.
const (
	EventFullscreenChange = "fullscreenchange"
)

// Ad events.
const (
	AdEventStarted  = "ad-started"
	AdEventComplete = "ad-complete"
	AdEventSkipped  = "ad-skipped"
	// AdEventError carries a *Error; ad errors never corrupt main-content state.
	AdEventError = "ad-error"
	// AdEventCuePointsChanged carries a []float64 of ad cue positions in seconds.
	AdEventCuePointsChanged = "ad-cuepoints-changed"
)

// Cast events.
const (
	CastEventStatusChanged = "caststatuschanged"
)
