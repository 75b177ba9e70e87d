// Package media defines the declarative configuration value object supplied to the player per session,
// along with the content types it is composed of (playlists, items, skip intervals, markers).
//
// The schema mirrors the embedding host's JSON configuration. Validation here is limited to the single
// fatal precondition: playable content must exist. Everything else is assumed pre-validated.
package media

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oriel-video/oriel/filesystem"
)

// ErrNoPlayableContent is the fatal configuration error returned when no playlist with at least one
// item exists. A session never starts in this condition.
var ErrNoPlayableContent = errors.New("configuration contains no playable content")

// Configuration is the single, unified configuration object for a player instance.
// It is immutable for the lifetime of a session; replacing it triggers full session re-establishment.
type Configuration struct {
	Source    Source     `json:"source"`
	Behavior  *Behavior  `json:"behavior,omitempty"`
	UI        *UIConfig  `json:"ui,omitempty"`
	Advanced  *Advanced  `json:"advanced,omitempty"`
	Analytics *Analytics `json:"analytics,omitempty"`
}

// Source defines what to play.
type Source struct {
	// Playlist is the ordered list of playlists (e.g. seasons). Must contain at least one playlist
	// with one item.
	Playlist []Playlist `json:"playlist"`
}

// Behavior defines how playback starts and which tracks are preferred.
type Behavior struct {
	// StartMuted starts the video in a muted state.
	StartMuted bool `json:"startMuted,omitempty"`
	// LowLatency makes the player attempt low-latency streaming modes for live content.
	LowLatency bool `json:"lowLatency,omitempty"`
	// DefaultAudioLanguage is the ISO 639-1 language code for the default audio track.
	DefaultAudioLanguage string `json:"defaultAudioLanguage,omitempty"`
	// DefaultTextLanguage is the ISO 639-1 language code for the default text track.
	DefaultTextLanguage string `json:"defaultTextLanguage,omitempty"`
}

// Advanced holds DRM, ads, and raw engine overrides for protected content and engine tuning.
type Advanced struct {
	Ads *AdsConfig `json:"ads,omitempty"`
	DRM *DRMConfig `json:"drm,omitempty"`
	// EngineConfig is a raw override deep-merged over the assembled engine configuration.
	// Highest precedence; use with caution.
	EngineConfig map[string]any `json:"engineConfig,omitempty"`
}

// Analytics carries optional analytics provider configuration. It is transported as data only;
// no analytics client lives in this core.
type Analytics struct {
	Mux *MuxAnalytics `json:"mux,omitempty"`
}

// MuxAnalytics identifies a Mux analytics environment.
type MuxAnalytics struct {
	EnvKey     string `json:"envKey"`
	VideoTitle string `json:"videoTitle,omitempty"`
}

// Playlist is an ordered group of video items, e.g. a season.
type Playlist struct {
	// ID uniquely identifies this playlist (e.g. "season-1").
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Items []VideoItem `json:"items"`
}

// VideoItem describes a single playable piece of content.
type VideoItem struct {
	VideoURL            string  `json:"videoURL"`
	Title               string  `json:"title,omitempty"`
	Description         string  `json:"description,omitempty"`
	PosterURL           string  `json:"posterURL,omitempty"`
	Duration            float64 `json:"duration,omitempty"`
	LastWatchedPosition float64 `json:"lastWatchedPosition,omitempty"`
	// Thumbnail is the URL of a WebVTT cue manifest mapping time ranges to sprite-sheet regions.
	Thumbnail string         `json:"thumbnail,omitempty"`
	SkipList  []SkipInterval `json:"skipList,omitempty"`
	IsLive    bool           `json:"isLive,omitempty"`
	Markers   []Marker       `json:"markers,omitempty"`
}

// SkipInterval is a time range (e.g. intro, recap) the UI offers to jump over.
// Intervals are not guaranteed non-overlapping; the first matching interval in list order wins.
type SkipInterval struct {
	Title     string  `json:"title,omitempty"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// MarkerType distinguishes chapter segments from point highlights.
type MarkerType string

const (
	MarkerChapter   MarkerType = "chapter"
	MarkerHighlight MarkerType = "highlight"
)

// Marker is a timeline annotation. Chapters partition the timeline into labeled segments;
// highlights are point annotations.
type Marker struct {
	StartTime float64    `json:"startTime"`
	EndTime   float64    `json:"endTime"`
	Label     string     `json:"label"`
	Color     string     `json:"color,omitempty"`
	Type      MarkerType `json:"type"`
}

// Ad references a single ad tag.
type Ad struct {
	AdTagURL string `json:"adTagUrl"`
	Type     string `json:"type,omitempty"` // preroll, midroll or postroll
}

// AdsConfig enumerates the ad tags requested at session start.
type AdsConfig struct {
	AdTags []Ad `json:"adTags"`
}

// DRMConfig configures content protection for the engine and the cast receiver.
type DRMConfig struct {
	// Servers maps key-system identifiers (e.g. "com.widevine.alpha") to license server URLs.
	Servers map[string]string `json:"servers,omitempty"`
	// Advanced maps key-system identifiers to raw per-scheme configuration blobs.
	Advanced map[string]map[string]any `json:"advanced,omitempty"`
	// ClearKeys maps key IDs to keys for clear-key DRM.
	ClearKeys map[string]string `json:"clearKeys,omitempty"`
	// FairplayCertificateURI points at an Apple FairPlay certificate.
	FairplayCertificateURI string `json:"fairplayCertificateUri,omitempty"`
	// AxinomToken, when present, is injected as the X-AxDRM-Message header on license requests.
	AxinomToken string `json:"axinomToken,omitempty"`
}

// Validate checks the single fatal precondition for starting a session: at least one playlist
// holding at least one item. Absence is a configuration error, not a recoverable one.
func (c *Configuration) Validate() error {
	for _, p := range c.Source.Playlist {
		if len(p.Items) > 0 {
			return nil
		}
	}
	return ErrNoPlayableContent
}

// Item returns the video item at the given cursor location, or nil when the location is out of bounds.
func (c *Configuration) Item(playlistIndex, itemIndex int) *VideoItem {
	if playlistIndex < 0 || playlistIndex >= len(c.Source.Playlist) {
		return nil
	}
	items := c.Source.Playlist[playlistIndex].Items
	if itemIndex < 0 || itemIndex >= len(items) {
		return nil
	}
	return &items[itemIndex]
}

// TotalItems counts the items across all playlists.
func (c *Configuration) TotalItems() (total int) {
	for _, p := range c.Source.Playlist {
		total += len(p.Items)
	}
	return total
}

// Parse decodes a Configuration from raw JSON.
func Parse(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads and decodes a Configuration from a file using the virtualized filesystem API.
func Load(path string) (*Configuration, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return Parse(data)
}
