// Package tracks converts the engine's raw variant and text track lists into the deduplicated,
// UI-friendly descriptors held by the state store. All functions are pure; they are re-run in
// full on every engine track-change event and their output replaces the previous lists wholesale.
package tracks

import (
	"sort"
	"strconv"
	"strings"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/state"
)

// MapVideo builds the video quality ladder: variants carrying both dimensions, one entry per
// height keeping the highest-bandwidth candidate, sorted by height descending.
func MapVideo(variants []engine.VariantTrack) []state.VideoTrack {
	byHeight := make(map[int]engine.VariantTrack)
	for _, track := range variants {
		if track.Width == 0 || track.Height == 0 {
			continue
		}
		if kept, ok := byHeight[track.Height]; !ok || kept.Bandwidth < track.Bandwidth {
			byHeight[track.Height] = track
		}
	}

	out := make([]state.VideoTrack, 0, len(byHeight))
	for _, track := range byHeight {
		out = append(out, state.VideoTrack{
			ID:        track.ID,
			Active:    track.Active,
			Width:     track.Width,
			Height:    track.Height,
			Bandwidth: int(track.Bandwidth),
			FrameRate: track.FrameRate,
			HDR:       track.HDR,
			VR:        track.Projection != "" && track.Projection != "rectilinear",
			Label:     heightLabel(track.Height),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height > out[j].Height })
	return out
}

// MapAudio builds the audio option list from variants carrying an audio component. Entries are
// unique per (language, codec) pair, so the same language in two codecs yields two options.
// The first variant seen per pair wins; its label is "<language-or-label> (<codec>)" when the
// codec is recognizable.
func MapAudio(variants []engine.VariantTrack) []state.AudioTrack {
	seen := make(map[string]bool)
	var out []state.AudioTrack
	for _, track := range variants {
		if !track.HasAudio() {
			continue
		}
		key := track.Language + ":" + track.AudioCodec
		if seen[key] {
			continue
		}
		seen[key] = true

		name := track.Label
		if name == "" {
			name = LanguageName(track.Language)
		}
		label := name
		if codec := ParseAudioCodec(track.AudioCodec); codec != "" {
			label = name + " (" + codec + ")"
		}

		out = append(out, state.AudioTrack{
			ID:       track.AudioID,
			Active:   track.Active,
			Language: track.Language,
			Codec:    track.AudioCodec,
			Label:    label,
		})
	}
	return out
}

// MapText builds the text option list, one entry per engine text track.
func MapText(texts []engine.TextTrack) []state.TextTrack {
	out := make([]state.TextTrack, 0, len(texts))
	for _, track := range texts {
		label := track.Label
		if label == "" {
			label = track.Language
		}
		kind := track.Kind
		if kind == "" {
			kind = "subtitles"
		}
		out = append(out, state.TextTrack{
			ID:       track.ID,
			Active:   track.Active,
			Language: track.Language,
			Label:    label,
			Kind:     kind,
		})
	}
	return out
}

// ParseAudioCodec maps a technical codec string to a friendly family name ("AAC", "Opus",
// "Dolby") by substring match, or "" when unrecognized.
func ParseAudioCodec(codec string) string {
	c := strings.ToLower(codec)
	switch {
	case c == "":
		return ""
	case strings.Contains(c, "opus"):
		return "Opus"
	case strings.Contains(c, "mp4a"), strings.Contains(c, "aac"):
		return "AAC"
	case strings.Contains(c, "ac-3"), strings.Contains(c, "eac3"):
		return "Dolby"
	}
	return ""
}

func heightLabel(height int) string {
	return strconv.Itoa(height) + "p"
}
