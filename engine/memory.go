package engine

import (
	"context"
	"fmt"
	"sync"
)

// Content describes one loadable presentation in the Memory engine's content table.
type Content struct {
	Duration  float64
	Live      bool
	SeekRange SeekRange
	Variants  []VariantTrack
	Texts     []TextTrack

	// LoadErr, when set, makes Load fail with this error instead of starting playback.
	LoadErr error
}

// Memory is a fully scriptable in-memory Engine. It backs the package tests and the
// demo CLI: content is registered up front with AddContent, playback time is advanced
// explicitly, and every event is dispatched synchronously on the calling goroutine.
type Memory struct {
	mu sync.Mutex

	cfg     Config
	prefs   Preferences
	filters *FilterRegistry
	emitter Emitter

	content map[string]Content

	loaded      bool
	uri         string
	live        bool
	seekRange   SeekRange
	variants    []VariantTrack
	texts       []TextTrack
	textVisible bool
	abr         bool

	media *MemoryMedia
	ads   *MemoryAds

	// LoadRequests records every manifest request after filters ran, newest last.
	LoadRequests []*Request
}

// NewMemory returns an idle Memory engine with an empty content table.
func NewMemory() *Memory {
	m := &Memory{
		filters: &FilterRegistry{},
		content: map[string]Content{},
		abr:     true,
	}
	m.media = newMemoryMedia()
	m.ads = newMemoryAds()
	return m
}

// AddContent registers a presentation under the given manifest URI.
func (m *Memory) AddContent(uri string, c Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[uri] = c
}

func (m *Memory) Configure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *Memory) Configuration() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *Memory) ApplyPreferences(prefs Preferences) {
	m.mu.Lock()
	m.prefs = prefs
	media := m.media
	m.mu.Unlock()

	media.SetPoster(prefs.PosterURL)
	if prefs.StartMuted {
		media.SetMuted(true)
	}
}

// Preferences returns the most recently applied presentation hints.
func (m *Memory) Preferences() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

func (m *Memory) Load(ctx context.Context, uri string, startTime float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := &Request{URI: uri, Headers: map[string]string{}}
	m.filters.Apply(RequestManifest, req)

	m.mu.Lock()
	m.LoadRequests = append(m.LoadRequests, req)
	c, ok := m.content[req.URI]
	if !ok {
		m.mu.Unlock()
		return NewError(CodeManifestInvalid, fmt.Sprintf("no content registered for %q", req.URI))
	}
	if c.LoadErr != nil {
		m.mu.Unlock()
		return c.LoadErr
	}

	m.loaded = true
	m.uri = req.URI
	m.live = c.Live
	m.variants = cloneVariants(c.Variants)
	m.texts = cloneTexts(c.Texts)
	if c.Live {
		m.seekRange = c.SeekRange
	} else {
		m.seekRange = SeekRange{Start: 0, End: c.Duration}
	}
	media := m.media
	m.mu.Unlock()

	media.reset(c.Duration, startTime)
	m.emitter.Emit(EventManifestParsed, nil)
	m.emitter.Emit(EventTracksChanged, nil)
	media.emitter.Emit(EventLoadedMetadata, nil)
	return nil
}

func (m *Memory) Unload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	wasLoaded := m.loaded
	m.loaded = false
	m.uri = ""
	m.live = false
	m.seekRange = SeekRange{}
	m.variants = nil
	m.texts = nil
	media := m.media
	m.mu.Unlock()

	if wasLoaded {
		media.reset(0, 0)
	}
	return nil
}

// Loaded reports whether a presentation is currently loaded.
func (m *Memory) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// LoadedURI returns the manifest URI of the loaded presentation, after request filters.
func (m *Memory) LoadedURI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uri
}

func (m *Memory) IsLive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *Memory) SeekRange() SeekRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seekRange
}

// AdvanceLiveWindow shifts the live seek window forward by delta seconds.
func (m *Memory) AdvanceLiveWindow(delta float64) {
	m.mu.Lock()
	m.seekRange.Start += delta
	m.seekRange.End += delta
	m.mu.Unlock()
}

func (m *Memory) VariantTracks() []VariantTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneVariants(m.variants)
}

func (m *Memory) TextTracks() []TextTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneTexts(m.texts)
}

func (m *Memory) SelectVariantTrack(id int, clearBuffer bool) error {
	m.mu.Lock()
	found := false
	for i := range m.variants {
		if m.variants[i].ID == id {
			found = true
		}
	}
	if !found {
		m.mu.Unlock()
		return fmt.Errorf("unknown variant track %d", id)
	}
	for i := range m.variants {
		m.variants[i].Active = m.variants[i].ID == id
	}
	m.abr = false
	m.mu.Unlock()

	m.emitter.Emit(EventAdaptation, nil)
	m.emitter.Emit(EventTracksChanged, nil)
	return nil
}

func (m *Memory) SelectTextTrack(id int) error {
	m.mu.Lock()
	found := false
	for i := range m.texts {
		if m.texts[i].ID == id {
			found = true
		}
	}
	if !found {
		m.mu.Unlock()
		return fmt.Errorf("unknown text track %d", id)
	}
	for i := range m.texts {
		m.texts[i].Active = m.texts[i].ID == id
	}
	m.mu.Unlock()

	m.emitter.Emit(EventTextChanged, nil)
	m.emitter.Emit(EventTracksChanged, nil)
	return nil
}

func (m *Memory) SelectAudioLanguage(language string) error {
	m.mu.Lock()
	best := -1
	for i := range m.variants {
		if m.variants[i].Language != language {
			continue
		}
		if best == -1 || m.variants[i].Bandwidth > m.variants[best].Bandwidth {
			best = i
		}
	}
	if best == -1 {
		m.mu.Unlock()
		return fmt.Errorf("no variant for language %q", language)
	}
	id := m.variants[best].ID
	for i := range m.variants {
		m.variants[i].Active = m.variants[i].ID == id
	}
	m.mu.Unlock()

	m.emitter.Emit(EventAdaptation, nil)
	m.emitter.Emit(EventTracksChanged, nil)
	return nil
}

func (m *Memory) SetTextTrackVisibility(visible bool) {
	m.mu.Lock()
	changed := m.textVisible != visible
	m.textVisible = visible
	m.mu.Unlock()

	if changed {
		m.emitter.Emit(EventTextTrackVisibility, visible)
	}
}

func (m *Memory) TextTrackVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textVisible
}

func (m *Memory) SetABREnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abr = enabled
}

func (m *Memory) ABREnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abr
}

func (m *Memory) AddListener(event string, fn Listener) (remove func()) {
	return m.emitter.On(event, fn)
}

// Emit dispatches an engine event to all listeners. Tests script failures and
// buffering transitions through it.
func (m *Memory) Emit(event string, data any) {
	m.emitter.Emit(event, data)
}

func (m *Memory) Networking() *FilterRegistry {
	return m.filters
}

func (m *Memory) Media() Media {
	return m.media
}

func (m *Memory) Ads() AdManager {
	return m.ads
}

func cloneVariants(in []VariantTrack) []VariantTrack {
	out := make([]VariantTrack, len(in))
	copy(out, in)
	return out
}

func cloneTexts(in []TextTrack) []TextTrack {
	out := make([]TextTrack, len(in))
	copy(out, in)
	return out
}

// MemoryMedia is the simulated media surface of the Memory engine.
type MemoryMedia struct {
	mu sync.Mutex

	paused      bool
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
	poster      string

	// BlockAutoplay makes the next Play call fail the way a browser autoplay
	// policy would, without changing the paused state.
	BlockAutoplay bool

	emitter   Emitter
	container *MemoryContainer
}

func newMemoryMedia() *MemoryMedia {
	return &MemoryMedia{
		paused:    true,
		volume:    1,
		container: &MemoryContainer{},
	}
}

func (m *MemoryMedia) reset(duration, currentTime float64) {
	m.mu.Lock()
	m.paused = true
	m.duration = duration
	m.currentTime = currentTime
	m.mu.Unlock()
}

func (m *MemoryMedia) Play() error {
	m.mu.Lock()
	if m.BlockAutoplay {
		m.mu.Unlock()
		return fmt.Errorf("play blocked by host autoplay policy")
	}
	wasPaused := m.paused
	m.paused = false
	m.mu.Unlock()

	if wasPaused {
		m.emitter.Emit(EventPlaying, nil)
	}
	return nil
}

func (m *MemoryMedia) Pause() {
	m.mu.Lock()
	wasPaused := m.paused
	m.paused = true
	m.mu.Unlock()

	if !wasPaused {
		m.emitter.Emit(EventPause, nil)
	}
}

func (m *MemoryMedia) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MemoryMedia) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MemoryMedia) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	m.currentTime = seconds
	m.mu.Unlock()

	m.emitter.Emit(EventTimeUpdate, nil)
}

// AdvanceTime moves playback forward by delta seconds and fires a time update,
// simulating the media clock ticking while playing.
func (m *MemoryMedia) AdvanceTime(delta float64) {
	m.mu.Lock()
	m.currentTime += delta
	m.mu.Unlock()

	m.emitter.Emit(EventTimeUpdate, nil)
}

// FinishPlayback jumps to the end of the media and fires the ended event.
func (m *MemoryMedia) FinishPlayback() {
	m.mu.Lock()
	m.currentTime = m.duration
	m.paused = true
	m.mu.Unlock()

	m.emitter.Emit(EventEnded, nil)
}

func (m *MemoryMedia) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MemoryMedia) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MemoryMedia) SetVolume(volume float64) {
	m.mu.Lock()
	changed := m.volume != volume
	m.volume = volume
	m.mu.Unlock()

	if changed {
		m.emitter.Emit(EventVolumeChange, nil)
	}
}

func (m *MemoryMedia) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *MemoryMedia) SetMuted(muted bool) {
	m.mu.Lock()
	changed := m.muted != muted
	m.muted = muted
	m.mu.Unlock()

	if changed {
		m.emitter.Emit(EventVolumeChange, nil)
	}
}

func (m *MemoryMedia) SetPoster(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poster = url
}

// Poster returns the currently applied poster URL.
func (m *MemoryMedia) Poster() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poster
}

func (m *MemoryMedia) AddListener(event string, fn Listener) (remove func()) {
	return m.emitter.On(event, fn)
}

func (m *MemoryMedia) Container() Container {
	return m.container
}

// MemoryContainer is the simulated player container owning fullscreen state.
type MemoryContainer struct {
	mu sync.Mutex

	fullscreen bool

	// DenyFullscreen makes RequestFullscreen fail the way a host policy denial would.
	DenyFullscreen bool

	emitter Emitter
}

func (c *MemoryContainer) RequestFullscreen() error {
	c.mu.Lock()
	if c.DenyFullscreen {
		c.mu.Unlock()
		return fmt.Errorf("fullscreen denied by host")
	}
	changed := !c.fullscreen
	c.fullscreen = true
	c.mu.Unlock()

	if changed {
		c.emitter.Emit(EventFullscreenChange, true)
	}
	return nil
}

func (c *MemoryContainer) ExitFullscreen() {
	c.mu.Lock()
	changed := c.fullscreen
	c.fullscreen = false
	c.mu.Unlock()

	if changed {
		c.emitter.Emit(EventFullscreenChange, false)
	}
}

func (c *MemoryContainer) FullscreenActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullscreen
}

func (c *MemoryContainer) AddListener(event string, fn Listener) (remove func()) {
	return c.emitter.On(event, fn)
}

// MemoryAds is the simulated ad manager. Ad breaks are started and finished
// explicitly by the test driving the scenario.
type MemoryAds struct {
	mu sync.Mutex

	inited    bool
	displayed bool
	current   *MemoryAd

	// RequestErr, when set, makes RequestAds fail with this error.
	RequestErr error

	// RequestedTags records every ad tag URL passed to RequestAds.
	RequestedTags []string

	emitter Emitter
}

func newMemoryAds() *MemoryAds {
	return &MemoryAds{}
}

func (a *MemoryAds) Init(adContainer any, media Media) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inited = true
}

// Initialized reports whether Init has been called since the last Release.
func (a *MemoryAds) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inited
}

func (a *MemoryAds) RequestAds(tagURL string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.RequestErr != nil {
		return a.RequestErr
	}
	a.RequestedTags = append(a.RequestedTags, tagURL)
	return nil
}

func (a *MemoryAds) AdDisplayed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed
}

func (a *MemoryAds) CurrentAd() Ad {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	return a.current
}

func (a *MemoryAds) AddListener(event string, fn Listener) (remove func()) {
	return a.emitter.On(event, fn)
}

func (a *MemoryAds) Release() {
	a.mu.Lock()
	a.inited = false
	a.displayed = false
	a.current = nil
	a.mu.Unlock()
}

// StartAd begins a simulated ad break and returns the ad.
func (a *MemoryAds) StartAd() *MemoryAd {
	ad := &MemoryAd{}
	a.mu.Lock()
	a.displayed = true
	a.current = ad
	a.mu.Unlock()

	a.emitter.Emit(AdEventStarted, nil)
	return ad
}

// CompleteAd ends the current ad break normally.
func (a *MemoryAds) CompleteAd() {
	a.endAd(AdEventComplete)
}

// SkipAd ends the current ad break as skipped by the viewer.
func (a *MemoryAds) SkipAd() {
	a.endAd(AdEventSkipped)
}

func (a *MemoryAds) endAd(event string) {
	a.mu.Lock()
	a.displayed = false
	a.current = nil
	a.mu.Unlock()

	a.emitter.Emit(event, nil)
}

// FailAd raises an ad error. Main-content state is untouched.
func (a *MemoryAds) FailAd(err *Error) {
	a.mu.Lock()
	a.displayed = false
	a.current = nil
	a.mu.Unlock()

	a.emitter.Emit(AdEventError, err)
}

// SetCuePoints publishes a new set of ad cue positions.
func (a *MemoryAds) SetCuePoints(cues []float64) {
	a.emitter.Emit(AdEventCuePointsChanged, cues)
}

// MemoryAd is a single simulated advertisement.
type MemoryAd struct {
	mu     sync.Mutex
	paused bool
}

func (a *MemoryAd) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *MemoryAd) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = true
}

func (a *MemoryAd) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = false
}

// MemoryCast is the simulated sender-side casting subsystem.
type MemoryCast struct {
	mu sync.Mutex

	available bool
	casting   bool
	receiver  string
	appData   map[string]any

	// CastErr, when set, makes Cast fail with this error (ErrCastCancelled for
	// a user-dismissed device picker).
	CastErr error

	// RemoteStartTime records the start position of the last successful Cast.
	RemoteStartTime float64

	emitter Emitter
}

// NewMemoryCast returns a cast proxy with no reachable receivers.
func NewMemoryCast() *MemoryCast {
	return &MemoryCast{}
}

// SetAvailable scripts receiver reachability and fires a status change.
func (c *MemoryCast) SetAvailable(available bool) {
	c.mu.Lock()
	c.available = available
	c.mu.Unlock()

	c.emitter.Emit(CastEventStatusChanged, nil)
}

func (c *MemoryCast) CanCast() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

func (c *MemoryCast) IsCasting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.casting
}

func (c *MemoryCast) ReceiverName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.casting {
		return ""
	}
	return c.receiver
}

// SetReceiverName scripts the display name reported once connected.
func (c *MemoryCast) SetReceiverName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = name
}

func (c *MemoryCast) SetAppData(data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appData = data
}

// AppData returns the last session description supplied via SetAppData.
func (c *MemoryCast) AppData() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appData
}

func (c *MemoryCast) Cast(ctx context.Context, startTime float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.CastErr != nil {
		err := c.CastErr
		c.mu.Unlock()
		return err
	}
	c.casting = true
	c.RemoteStartTime = startTime
	c.mu.Unlock()

	c.emitter.Emit(CastEventStatusChanged, nil)
	return nil
}

func (c *MemoryCast) SuggestDisconnect() {
	c.mu.Lock()
	changed := c.casting
	c.casting = false
	c.mu.Unlock()

	if changed {
		c.emitter.Emit(CastEventStatusChanged, nil)
	}
}

// RemoteDisconnect simulates the receiver ending the session on its own.
func (c *MemoryCast) RemoteDisconnect() {
	c.SuggestDisconnect()
}

func (c *MemoryCast) AddListener(event string, fn Listener) (remove func()) {
	return c.emitter.On(event, fn)
}
