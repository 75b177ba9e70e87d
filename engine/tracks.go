package engine

// VariantTrack is a selectable combination of a video rendition and an audio rendition offered by
// the streaming manifest. Snapshots are plain values: they are recomputed wholesale on every
// track-change event and never point into engine internals.
type VariantTrack struct {
	ID     int
	Active bool

	// Video rendition. Width and Height are zero for audio-only variants.
	Width      int
	Height     int
	Bandwidth  int64
	FrameRate  float64
	HDR        string // e.g. "SDR", "PQ", "HLG"; empty when unknown
	Projection string // e.g. "rectilinear", "equirectangular"; empty when unknown

	// Audio rendition. AudioID is 0 when the variant carries no audio component.
	AudioID    int
	AudioCodec string
	Language   string
	Label      string
}

// HasAudio reports whether the variant carries an audio component.
func (t VariantTrack) HasAudio() bool {
	return t.AudioID != 0
}

// TextTrack is a subtitle or caption track.
type TextTrack struct {
	ID       int
	Active   bool
	Language string
	Label    string
	Kind     string // "subtitles", "captions", ...
}
