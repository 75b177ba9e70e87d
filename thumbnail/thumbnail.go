// Package thumbnail fetches and parses the WebVTT cue manifest that maps playback time ranges
// to sprite-sheet sub-regions, powering the scrub-bar hover preview.
//
// The manifest is best-effort decoration: a missing, unreachable or malformed manifest yields
// an empty cue list, never an error.
package thumbnail

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oriel-video/oriel/log"
	"github.com/oriel-video/oriel/network"
)

// Cue maps one playback time range to a sub-region of a sprite sheet.
type Cue struct {
	StartTime float64
	EndTime   float64
	SpriteURL string
	X         int
	Y         int
	W         int
	H         int
}

// Fetch retrieves and parses the cue manifest at the given URL. Any failure degrades to an
// empty cue list.
func Fetch(ctx context.Context, manifestURL string) []Cue {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		log.Warnf("thumbnail manifest request %s: %v", manifestURL, err)
		return nil
	}

	res, err := network.Client.Do(req)
	if err != nil {
		log.Warnf("thumbnail manifest fetch %s: %v", manifestURL, err)
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Warnf("thumbnail manifest fetch %s: status %d", manifestURL, res.StatusCode)
		return nil
	}
	return Parse(res.Body, manifestURL)
}

// Parse reads a WebVTT cue manifest. Sprite URLs are resolved against the manifest URL; cue
// payloads without an #xywh= sub-region are skipped.
func Parse(r io.Reader, manifestURL string) []Cue {
	base, err := url.Parse(manifestURL)
	if err != nil {
		base = nil
	}

	var cues []Cue
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "-->") {
			continue
		}

		times := strings.SplitN(line, "-->", 2)
		if len(times) != 2 {
			continue
		}
		start, okStart := parseTimestamp(strings.TrimSpace(times[0]))
		// Cue settings may trail the end timestamp, or the line may end at the arrow.
		endFields := strings.Fields(times[1])
		if !okStart || len(endFields) == 0 {
			continue
		}
		end, okEnd := parseTimestamp(endFields[0])
		if !okEnd {
			continue
		}

		if !scanner.Scan() {
			break
		}
		payload := strings.TrimSpace(scanner.Text())
		cue, ok := parsePayload(payload, base)
		if !ok {
			continue
		}
		cue.StartTime = start
		cue.EndTime = end
		cues = append(cues, cue)
	}
	return cues
}

// parseTimestamp reads "HH:MM:SS.mmm" or "MM:SS.mmm" into whole seconds.
func parseTimestamp(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	hours := 0
	if len(parts) == 3 {
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, false
		}
		hours = h
		parts = parts[1:]
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.SplitN(parts[1], ".", 2)[0])
	if err != nil {
		return 0, false
	}
	return float64(hours*3600 + minutes*60 + seconds), true
}

func parsePayload(payload string, base *url.URL) (Cue, bool) {
	sprite, coords, found := strings.Cut(payload, "#xywh=")
	if !found || sprite == "" {
		return Cue{}, false
	}

	fields := strings.Split(coords, ",")
	if len(fields) != 4 {
		return Cue{}, false
	}
	nums := make([]int, 4)
	for i, field := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return Cue{}, false
		}
		nums[i] = n
	}

	spriteURL := sprite
	if base != nil {
		if resolved, err := base.Parse(sprite); err == nil {
			spriteURL = resolved.String()
		}
	}

	return Cue{SpriteURL: spriteURL, X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}, true
}
