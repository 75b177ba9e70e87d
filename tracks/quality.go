package tracks

import (
	"fmt"
	"strings"

	"github.com/oriel-video/oriel/state"
)

// BadgeStyle selects the visual treatment of a quality badge.
type BadgeStyle string

const (
	BadgeDefault BadgeStyle = "default"
	BadgeHDR     BadgeStyle = "hdr"
	BadgeVR      BadgeStyle = "vr"
)

// QualityBadge is one marker shown next to a quality option.
type QualityBadge struct {
	Text  string
	Style BadgeStyle
}

// QualityInfo is the display classification of one video track.
type QualityInfo struct {
	Label      string
	Resolution string
	Badges     []QualityBadge
}

// qualityTiers maps track widths to display labels, highest first. The fixed widths absorb the
// small encoder-to-encoder variation around nominal resolutions.
var qualityTiers = []struct {
	minWidth  int
	label     string
	badgeText string
}{
	{7600, "8K", "8K"},
	{5000, "5K", "5K"},
	{3800, "4K", "UHD"},
	{2500, "1440p", "QHD"},
	{1900, "1080p", "HD"},
	{1200, "720p", "HD"},
	{840, "480p", ""},
	{620, "360p", ""},
	{400, "240p", ""},
	{0, "144p", ""},
}

// Quality classifies a video track into a user-facing label, exact resolution string and badge
// list. Badge order is fixed: resolution tier, then VR, then HDR.
func Quality(track state.VideoTrack) QualityInfo {
	var badges []QualityBadge

	label := fmt.Sprintf("%dp", track.Height)
	for _, tier := range qualityTiers {
		if track.Width >= tier.minWidth {
			label = tier.label
			if tier.badgeText != "" {
				badges = append(badges, QualityBadge{Text: tier.badgeText, Style: BadgeDefault})
			}
			break
		}
	}

	if track.VR {
		label += " (VR)"
		badges = append(badges, QualityBadge{Text: "VR", Style: BadgeVR})
	}

	if track.HDR != "" && strings.ToUpper(track.HDR) != "SDR" {
		badges = append(badges, QualityBadge{Text: track.HDR, Style: BadgeHDR})
	}

	return QualityInfo{
		Label:      label,
		Resolution: fmt.Sprintf("%dx%d", track.Width, track.Height),
		Badges:     badges,
	}
}

// FormatBitrate renders a bandwidth in bits per second as a human-readable rate.
func FormatBitrate(bits int) string {
	switch {
	case bits == 0:
		return ""
	case bits >= 1000000:
		return fmt.Sprintf("%.1f Mbps", float64(bits)/1000000)
	case bits >= 1000:
		return fmt.Sprintf("%d kbps", int(float64(bits)/1000+0.5))
	}
	return fmt.Sprintf("%d bps", bits)
}
