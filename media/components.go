package media

// UIConfig carries appearance and interface settings. The rendering of these settings is an outer
// surface concern; the core only owns the component-visibility merge.
type UIConfig struct {
	Theme      *Theme          `json:"theme,omitempty"`
	Layout     *Layout         `json:"layout,omitempty"`
	Behavior   *UIBehavior     `json:"behavior,omitempty"`
	Components map[string]bool `json:"components,omitempty"`
}

// Theme groups visual styling knobs.
type Theme struct {
	PrimaryColor          string `json:"primaryColor,omitempty"`
	FontFamily            string `json:"fontFamily,omitempty"`
	PlayerBackgroundColor string `json:"playerBackgroundColor,omitempty"`
}

// Layout groups sizing and logo placement knobs.
type Layout struct {
	Width        string `json:"width,omitempty"`
	Height       string `json:"height,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
	LogoPosition string `json:"logoPosition,omitempty"`
}

// UIBehavior groups interaction knobs.
type UIBehavior struct {
	HideControls                  bool `json:"hideControls,omitempty"`
	DoubleClickToToggleFullscreen bool `json:"doubleClickToToggleFullscreen,omitempty"`
}

// Component identifiers accepted in UIConfig.Components.
const (
	ComponentPlayPause       = "playPause"
	ComponentForward         = "forward"
	ComponentBackward        = "backward"
	ComponentNext            = "next"
	ComponentVolume          = "volume"
	ComponentPlaylist        = "playlist"
	ComponentQualitySelector = "qualitySelector"
	ComponentTrackSelector   = "trackSelector"
	ComponentFullscreen      = "fullscreen"
	ComponentChromecast      = "chromecast"
)

// DefaultComponents returns the factory visibility map: every control enabled.
func DefaultComponents() map[string]bool {
	return map[string]bool{
		ComponentPlayPause:       true,
		ComponentForward:         true,
		ComponentBackward:        true,
		ComponentNext:            true,
		ComponentVolume:          true,
		ComponentPlaylist:        true,
		ComponentQualitySelector: true,
		ComponentTrackSelector:   true,
		ComponentFullscreen:      true,
		ComponentChromecast:      true,
	}
}

// MergedComponents overlays the configuration's component toggles on the factory defaults.
func (c *Configuration) MergedComponents() map[string]bool {
	merged := DefaultComponents()
	if c.UI == nil {
		return merged
	}
	for name, visible := range c.UI.Components {
		merged[name] = visible
	}
	return merged
}
