package engine

import (
	"encoding/json"
	"fmt"
)

// Config is the subset of the engine's configuration surface the orchestrator manages.
// Field names and units mirror the engine's own wire format (delays in milliseconds, buffer
// goals in seconds) so raw host overrides merge cleanly.
type Config struct {
	Retry     RetryParameters  `json:"retryParameters"`
	DRM       DRMSection       `json:"drm"`
	ABR       ABRSection       `json:"abr"`
	Streaming StreamingSection `json:"streaming"`
	Manifest  ManifestSection  `json:"manifest"`
}

// RetryParameters tune the engine's internal retry/backoff behavior for network operations.
type RetryParameters struct {
	MaxAttempts   int     `json:"maxAttempts"`
	BaseDelay     float64 `json:"baseDelay"` // milliseconds
	BackoffFactor float64 `json:"backoffFactor"`
	FuzzFactor    float64 `json:"fuzzFactor"`
	Timeout       float64 `json:"timeout"` // milliseconds
}

// DRMSection configures content protection.
type DRMSection struct {
	Retry     RetryParameters           `json:"retryParameters"`
	Servers   map[string]string         `json:"servers,omitempty"`
	Advanced  map[string]map[string]any `json:"advanced,omitempty"`
	ClearKeys map[string]string         `json:"clearKeys,omitempty"`
}

// ABRSection configures automatic bitrate adaptation.
type ABRSection struct {
	Enabled                  bool    `json:"enabled"`
	DefaultBandwidthEstimate float64 `json:"defaultBandwidthEstimate"` // bits per second
	BandwidthUpgradeTarget   float64 `json:"bandwidthUpgradeTarget"`
	BandwidthDowngradeTarget float64 `json:"bandwidthDowngradeTarget"`
}

// StreamingSection configures buffering and live-latency behavior.
type StreamingSection struct {
	BufferingGoal            float64 `json:"bufferingGoal"`   // seconds
	RebufferingGoal          float64 `json:"rebufferingGoal"` // seconds
	AlwaysStreamText         bool    `json:"alwaysStreamText"`
	GapDetectionThreshold    float64 `json:"gapDetectionThreshold"` // seconds
	LowLatencyMode           bool    `json:"lowLatencyMode,omitempty"`
	DefaultPresentationDelay float64 `json:"defaultPresentationDelay,omitempty"` // seconds
}

// ManifestSection configures manifest parsing leniency.
type ManifestSection struct {
	DASH                       DASHManifest `json:"dash"`
	HLS                        HLSManifest  `json:"hls"`
	AvailabilityWindowOverride float64      `json:"availabilityWindowOverride,omitempty"` // seconds
}

// DASHManifest holds DASH-specific parsing flags.
type DASHManifest struct {
	IgnoreMinBufferTime bool `json:"ignoreMinBufferTime"`
}

// HLSManifest holds HLS-specific parsing flags.
type HLSManifest struct {
	IgnoreTextStreamFailures bool   `json:"ignoreTextStreamFailures"`
	DefaultAudioCodec        string `json:"defaultAudioCodec,omitempty"`
	DefaultVideoCodec        string `json:"defaultVideoCodec,omitempty"`
}

// UniversalConfig returns the resilience baseline applied to every session, VOD and live alike.
// It prioritizes recovery from transient network faults and tolerance of imperfect content over
// strict manifest conformance.
func UniversalConfig() Config {
	return Config{
		Retry: RetryParameters{
			MaxAttempts:   4,
			BaseDelay:     1000,
			BackoffFactor: 2,
			FuzzFactor:    0.5,
			Timeout:       20000,
		},
		DRM: DRMSection{
			Retry: RetryParameters{
				MaxAttempts:   4,
				BaseDelay:     1000,
				BackoffFactor: 2,
				FuzzFactor:    0.5,
				Timeout:       15000,
			},
		},
		ABR: ABRSection{
			Enabled:                  true,
			DefaultBandwidthEstimate: 5000000,
			BandwidthUpgradeTarget:   0.85,
			BandwidthDowngradeTarget: 0.95,
		},
		Streaming: StreamingSection{
			BufferingGoal:    90,
			RebufferingGoal:  4,
			AlwaysStreamText: true,
			// Slightly more tolerant of small gaps between segments than the engine default;
			// helps with poorly encoded content.
			GapDetectionThreshold: 0.15,
		},
		Manifest: ManifestSection{
			// Let BufferingGoal take precedence over a manifest's minBufferTime.
			DASH: DASHManifest{IgnoreMinBufferTime: true},
			HLS: HLSManifest{
				IgnoreTextStreamFailures: true,
				DefaultAudioCodec:        "mp4a.40.2",
				DefaultVideoCodec:        "avc1.42E01E",
			},
		},
	}
}

// MergeRaw deep-merges a raw host override on top of a typed configuration and returns the result.
// The override wins on every leaf it names; maps merge recursively, everything else replaces.
func MergeRaw(cfg Config, override map[string]any) (Config, error) {
	if len(override) == 0 {
		return cfg, nil
	}

	base, err := toMap(cfg)
	if err != nil {
		return cfg, err
	}

	merged := deepMerge(base, override)

	data, err := json.Marshal(merged)
	if err != nil {
		return cfg, fmt.Errorf("merge engine config: %w", err)
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return cfg, fmt.Errorf("merge engine config: %w", err)
	}
	return out, nil
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode engine config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode engine config: %w", err)
	}
	return m, nil
}

func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(existing, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}
