// Package timeline computes the segmented scrub-track geometry from a chapter list and content
// duration, including the forward (time to visual percent) and inverse (pointer position to
// time) coordinate mappings used for seeking and hover previews.
//
// Chapters are separated by a fixed pixel gap. Because segment widths are percentages of the
// track, the gap budget is converted to a percentage first and the remaining width is
// distributed across segments proportionally to their time share.
package timeline

import (
	"math"
	"sort"

	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/thumbnail"
)

// ChapterGapWidth is the visual gap between two chapter segments, in pixels.
const ChapterGapWidth = 3.5

// Segment is one positioned stretch of the scrub track.
type Segment struct {
	StartTime float64
	EndTime   float64
	Label     string
	IsChapter bool

	LeftPercent  float64
	WidthPercent float64
	Index        int
}

// Layout is the computed geometry of one scrub track. It is recomputed whenever the chapter
// list, duration or track width changes; a zero Layout behaves as an unsegmented track.
type Layout struct {
	segments []Segment
	duration float64
	widthPx  float64
}

// New computes the segment layout for a chapter list over the given duration and track width.
// Chapters are sorted by start time; a synthetic non-chapter segment covers any remaining time
// between the last chapter's end and the duration.
func New(chapters []media.Marker, duration, widthPx float64) Layout {
	layout := Layout{duration: duration, widthPx: widthPx}
	if len(chapters) == 0 || duration <= 0 || widthPx <= 0 {
		return layout
	}

	sorted := append([]media.Marker(nil), chapters...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	segments := make([]Segment, 0, len(sorted)+1)
	for _, chapter := range sorted {
		segments = append(segments, Segment{
			StartTime: chapter.StartTime,
			EndTime:   chapter.EndTime,
			Label:     chapter.Label,
			IsChapter: true,
		})
	}
	if last := segments[len(segments)-1]; last.EndTime < duration {
		segments = append(segments, Segment{StartTime: last.EndTime, EndTime: duration})
	}

	gaps := 0
	for i, segment := range segments {
		if segment.IsChapter && i < len(segments)-1 {
			gaps++
		}
	}
	totalGapPx := float64(gaps) * ChapterGapWidth
	availablePercent := 100 - totalGapPx/widthPx*100
	gapPercent := ChapterGapWidth / widthPx * 100

	left := 0.0
	for i := range segments {
		width := (segments[i].EndTime - segments[i].StartTime) / duration * availablePercent
		segments[i].LeftPercent = left
		segments[i].WidthPercent = width
		segments[i].Index = i
		left += width
		if segments[i].IsChapter && i < len(segments)-1 {
			left += gapPercent
		}
	}

	// Rounding remainder lands on the last segment so the track always sums to exactly 100%.
	last := &segments[len(segments)-1]
	if last.LeftPercent < 100 {
		last.WidthPercent = 100 - last.LeftPercent
	}

	layout.segments = segments
	return layout
}

// Segments returns the positioned segments, in track order.
func (l Layout) Segments() []Segment {
	return append([]Segment(nil), l.segments...)
}

// PositionForTime maps a playback time to its visual position as a percentage of the track.
func (l Layout) PositionForTime(time float64) float64 {
	if len(l.segments) == 0 || l.duration <= 0 {
		if l.duration > 0 {
			return time / l.duration * 100
		}
		return 0
	}

	index := len(l.segments) - 1
	for i, segment := range l.segments {
		if time < segment.EndTime {
			index = i
			break
		}
	}

	segment := l.segments[index]
	segmentDuration := segment.EndTime - segment.StartTime
	if segmentDuration <= 0 {
		return segment.LeftPercent
	}

	clamped := math.Max(segment.StartTime, math.Min(time, segment.EndTime))
	progress := (clamped - segment.StartTime) / segmentDuration
	return segment.LeftPercent + progress*segment.WidthPercent
}

// TimeForPosition maps a pointer position in pixels from the track's left edge back to a
// playback time. Positions inside an inter-chapter gap snap to the start of the next segment;
// gaps are a visual divider, not seekable dead time.
func (l Layout) TimeForPosition(positionPx float64) float64 {
	percent := l.positionPercent(positionPx)
	if len(l.segments) == 0 {
		return percent / 100 * l.duration
	}

	for i, segment := range l.segments {
		start := segment.LeftPercent
		end := segment.LeftPercent + segment.WidthPercent

		if percent >= start && percent <= end {
			if segment.WidthPercent <= 0 {
				return segment.StartTime
			}
			progress := (percent - start) / segment.WidthPercent
			return segment.StartTime + progress*(segment.EndTime-segment.StartTime)
		}

		if i+1 < len(l.segments) && segment.IsChapter {
			next := l.segments[i+1]
			if percent > end && percent < next.LeftPercent {
				return next.StartTime
			}
		}
	}
	return l.duration
}

// SegmentAt hit-tests a pointer position in pixels against the segment spans. Positions inside
// a gap match no segment.
func (l Layout) SegmentAt(positionPx float64) (Segment, bool) {
	percent := l.positionPercent(positionPx)
	for _, segment := range l.segments {
		if percent >= segment.LeftPercent && percent <= segment.LeftPercent+segment.WidthPercent {
			return segment, true
		}
	}
	return Segment{}, false
}

func (l Layout) positionPercent(positionPx float64) float64 {
	if l.widthPx <= 0 {
		return 0
	}
	clamped := math.Max(0, math.Min(positionPx, l.widthPx))
	return clamped / l.widthPx * 100
}

// SegmentIndexForTime returns the index of the segment containing a time, or -1 when none does.
func (l Layout) SegmentIndexForTime(time float64) int {
	for i, segment := range l.segments {
		if time >= segment.StartTime && time < segment.EndTime {
			return i
		}
	}
	return -1
}

// ChapterAt returns the chapter marker whose time span contains the given time.
func ChapterAt(chapters []media.Marker, time float64) (media.Marker, bool) {
	for _, chapter := range chapters {
		if time >= chapter.StartTime && time < chapter.EndTime {
			return chapter, true
		}
	}
	return media.Marker{}, false
}

// highlightHoverWindow is how close, in seconds, a hover time must be to a point highlight for
// the highlight to show in the preview.
const highlightHoverWindow = 2.0

// HighlightNear returns the first point highlight within the hover window of the given time.
func HighlightNear(highlights []media.Marker, time float64) (media.Marker, bool) {
	for _, highlight := range highlights {
		if math.Abs(highlight.StartTime-time) <= highlightHoverWindow {
			return highlight, true
		}
	}
	return media.Marker{}, false
}

// CueAt returns the thumbnail cue whose time range contains the given time.
func CueAt(cues []thumbnail.Cue, time float64) (thumbnail.Cue, bool) {
	for _, cue := range cues {
		if time >= cue.StartTime && time < cue.EndTime {
			return cue, true
		}
	}
	return thumbnail.Cue{}, false
}

// Chapters filters a marker list down to chapter markers.
func Chapters(markers []media.Marker) []media.Marker {
	var out []media.Marker
	for _, marker := range markers {
		if marker.Type == media.MarkerChapter {
			out = append(out, marker)
		}
	}
	return out
}

// Highlights filters a marker list down to point highlights.
func Highlights(markers []media.Marker) []media.Marker {
	var out []media.Marker
	for _, marker := range markers {
		if marker.Type == media.MarkerHighlight {
			out = append(out, marker)
		}
	}
	return out
}
