// Package session contains the orchestrator at the center of the player: given an engine, a
// configuration and an active playlist item, it tears down the previous playback session,
// assembles and applies the merged engine configuration, wires the event bridge and loads the
// item. Any change to one of the three inputs re-runs the full cycle.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/viper"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/history"
	"github.com/oriel-video/oriel/key"
	"github.com/oriel-video/oriel/log"
	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/playlist"
	"github.com/oriel-video/oriel/state"
	"github.com/oriel-video/oriel/thumbnail"
)

// Phase is the orchestrator's lifecycle position.
type Phase int

const (
	// PhaseIdle means no session is established.
	PhaseIdle Phase = iota
	// PhaseEstablishing means teardown of the previous session is done and the new load is in flight.
	PhaseEstablishing
	// PhaseActive means content is loaded and the event bridge is live.
	PhaseActive
)

// axinomLicenseHeader carries the Axinom DRM token on license requests.
const axinomLicenseHeader = "X-AxDRM-Message"

// Orchestrator drives session establishment and teardown for one player.
type Orchestrator struct {
	mu sync.Mutex

	store  *state.Store
	eng    engine.Engine
	cfg    *media.Configuration
	cursor *playlist.Cursor
	item   *media.VideoItem

	cursorUnsub func()

	phase         Phase
	removeFns     []func()
	licenseFilter int
	hasLicense    bool
	adsWired      bool

	// generation invalidates in-flight thumbnail fetches across teardowns.
	generation int
	cues       []thumbnail.Cue
}

// New returns an idle orchestrator writing into the given store.
func New(store *state.Store) *Orchestrator {
	return &Orchestrator{store: store}
}

// Store returns the state store this orchestrator writes into.
func (o *Orchestrator) Store() *state.Store {
	return o.store
}

// Engine returns the installed playback engine, or nil before one is set.
func (o *Orchestrator) Engine() engine.Engine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.eng
}

// Configuration returns the active declarative configuration, or nil before one is set.
func (o *Orchestrator) Configuration() *media.Configuration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// CurrentItem returns the item of the established session, or nil while idle.
func (o *Orchestrator) CurrentItem() *media.VideoItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.item
}

// Phase returns the current lifecycle position.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Cursor returns the playback cursor of the current configuration, or nil before one is set.
func (o *Orchestrator) Cursor() *playlist.Cursor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor
}

// ThumbnailCues returns the hover-preview cues fetched for the active item, if any.
func (o *Orchestrator) ThumbnailCues() []thumbnail.Cue {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]thumbnail.Cue(nil), o.cues...)
}

// SetEngine installs the playback engine, re-establishing the session against it.
func (o *Orchestrator) SetEngine(ctx context.Context, eng engine.Engine) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.teardownLocked(ctx)
	o.eng = eng
	o.establishLocked(ctx)
}

// SetConfiguration installs a new declarative configuration. It fails fast on the single fatal
// precondition: no playable content. The previous session is torn down either way; the new one
// starts once the cursor resolves to an item.
func (o *Orchestrator) SetConfiguration(ctx context.Context, cfg *media.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.store.SetComponents(cfg.MergedComponents())

	o.mu.Lock()
	defer o.mu.Unlock()

	o.teardownLocked(ctx)
	if o.cursorUnsub != nil {
		o.cursorUnsub()
		o.cursorUnsub = nil
	}

	o.cfg = cfg
	o.cursor = playlist.New(cfg)
	o.cursorUnsub = o.cursor.Subscribe(func(int, int) {
		o.Reestablish(context.Background())
	})
	return nil
}

// Reestablish re-runs the full teardown/setup cycle for the currently resolved item.
func (o *Orchestrator) Reestablish(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.teardownLocked(ctx)
	o.establishLocked(ctx)
}

// Close tears the session down for good. It is idempotent.
func (o *Orchestrator) Close(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.teardownLocked(ctx)
	if o.cursorUnsub != nil {
		o.cursorUnsub()
		o.cursorUnsub = nil
	}
}

// teardownLocked dismantles the current session: listeners off, license filter out, ads
// released, engine unloaded. Failures are logged, never propagated; the next session's setup
// must not be blocked by a dying one.
func (o *Orchestrator) teardownLocked(ctx context.Context) {
	for _, remove := range o.removeFns {
		remove()
	}
	o.removeFns = nil

	if o.eng != nil {
		if o.hasLicense {
			o.eng.Networking().Unregister(o.licenseFilter)
			o.hasLicense = false
		}
		if o.adsWired {
			o.eng.Ads().Release()
			o.adsWired = false
		}
		if o.phase == PhaseActive {
			o.saveHistoryLocked()
		}
		if err := o.eng.Unload(ctx); err != nil {
			log.Warnf("unload during teardown: %v", err)
		}
	}

	o.generation++
	o.cues = nil
	o.item = nil
	o.phase = PhaseIdle
}

// establishLocked runs the setup sequence for the currently resolved item. With any of the
// three inputs missing it leaves the orchestrator idle.
func (o *Orchestrator) establishLocked(ctx context.Context) {
	if o.eng == nil || o.cfg == nil || o.cursor == nil {
		return
	}
	item, ok := o.cursor.Current().Get()
	if !ok {
		return
	}

	o.item = item
	o.phase = PhaseEstablishing
	o.store.ResetForLoad()

	cfg := assembleConfig(o.cfg, item)
	o.eng.Configure(cfg)

	if token := axinomToken(o.cfg); token != "" {
		o.licenseFilter = o.eng.Networking().Register(func(reqType engine.RequestType, req *engine.Request) {
			if reqType == engine.RequestLicense {
				req.Headers[axinomLicenseHeader] = token
			}
		})
		o.hasLicense = true
	}

	o.removeFns = o.wireBridge(item)

	if o.cfg.Advanced != nil && o.cfg.Advanced.Ads != nil {
		o.setupAdsLocked(o.cfg.Advanced.Ads)
	}

	o.eng.ApplyPreferences(preferences(o.cfg, item))

	startTime := item.LastWatchedPosition
	if startTime == 0 {
		if persisted, ok := history.Position(item.VideoURL); ok {
			startTime = persisted
		}
	}

	if err := o.eng.Load(ctx, item.VideoURL, startTime); err != nil {
		log.Errorf("load %s: %v", item.VideoURL, err)
		o.store.SetError(asEngineError(err))
		o.phase = PhaseIdle
		return
	}

	o.eng.SetTextTrackVisibility(true)
	o.store.SetContentLoaded(true)
	o.resync(item)

	if viper.GetBool(key.PlayerAutoplay) {
		if err := o.eng.Media().Play(); err != nil {
			log.Warnf("autoplay prevented: %v", err)
		}
	}

	o.phase = PhaseActive
	o.fetchThumbnailsLocked(item)
}

// setupAdsLocked binds the ad subsystem, wires its events into the store and issues one
// request per configured tag.
func (o *Orchestrator) setupAdsLocked(ads *media.AdsConfig) {
	manager := o.eng.Ads()
	manager.Init(nil, o.eng.Media())
	o.adsWired = true

	store := o.store
	o.removeFns = append(o.removeFns,
		manager.AddListener(engine.AdEventStarted, func(string, any) { store.SetAdPlaying(true) }),
		manager.AddListener(engine.AdEventComplete, func(string, any) { store.SetAdPlaying(false) }),
		manager.AddListener(engine.AdEventSkipped, func(string, any) { store.SetAdPlaying(false) }),
		manager.AddListener(engine.AdEventError, func(_ string, data any) {
			log.Warnf("ad error: %v", data)
		}),
		manager.AddListener(engine.AdEventCuePointsChanged, func(_ string, data any) {
			if cues, ok := data.([]float64); ok {
				store.SetAdCuePoints(cues)
			}
		}),
	)

	for _, tag := range ads.AdTags {
		if err := manager.RequestAds(tag.AdTagURL); err != nil {
			log.Warnf("ad request %s: %v", tag.AdTagURL, err)
		}
	}
}

// fetchThumbnailsLocked starts the hover-preview cue fetch for an item. The result is applied
// only if the session generation is unchanged when the fetch resolves.
func (o *Orchestrator) fetchThumbnailsLocked(item *media.VideoItem) {
	if item.Thumbnail == "" {
		return
	}
	generation := o.generation

	go func() {
		cues := thumbnail.Fetch(context.Background(), item.Thumbnail)

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.generation != generation {
			return
		}
		o.cues = cues
	}()
}

// saveHistoryLocked persists the resume position of the outgoing item.
func (o *Orchestrator) saveHistoryLocked() {
	if o.item == nil {
		return
	}
	finishHistory(o.item, o.eng.Media())
}

// finishHistory updates persistence when an item plays to its end: past the completion
// percentage the record is cleared, otherwise the final position is saved.
func finishHistory(item *media.VideoItem, m engine.Media) {
	if !viper.GetBool(key.HistorySaveOnWatch) {
		return
	}

	position, duration := m.CurrentTime(), m.Duration()
	completion := float64(viper.GetInt(key.PlayerCompletionPercentage))
	if duration > 0 && position/duration*100 >= completion {
		if err := history.Remove(item.VideoURL); err != nil {
			log.Warnf("clear watch history: %v", err)
		}
		return
	}
	if err := history.Save(item.VideoURL, position, duration); err != nil {
		log.Warnf("save watch history: %v", err)
	}
}

// assembleConfig layers the engine configuration for one item: universal baseline, live
// overrides, DRM, then the raw host override with highest precedence.
func assembleConfig(cfg *media.Configuration, item *media.VideoItem) engine.Config {
	out := engine.UniversalConfig()

	if item.IsLive {
		lowLatency := cfg.Behavior != nil && cfg.Behavior.LowLatency
		if lowLatency {
			out.Streaming.LowLatencyMode = true
			out.Manifest.AvailabilityWindowOverride = 15
		} else {
			out.Streaming.DefaultPresentationDelay = 12
		}
	}

	if cfg.Advanced != nil && cfg.Advanced.DRM != nil {
		drm := cfg.Advanced.DRM
		if len(drm.Servers) > 0 {
			out.DRM.Servers = drm.Servers
		}
		if len(drm.Advanced) > 0 {
			out.DRM.Advanced = drm.Advanced
		}
	}

	if cfg.Advanced != nil && len(cfg.Advanced.EngineConfig) > 0 {
		merged, err := engine.MergeRaw(out, cfg.Advanced.EngineConfig)
		if err != nil {
			log.Errorf("engine config override rejected: %v", err)
			return out
		}
		out = merged
	}
	return out
}

func preferences(cfg *media.Configuration, item *media.VideoItem) engine.Preferences {
	prefs := engine.Preferences{PosterURL: item.PosterURL}
	if cfg.Behavior != nil {
		prefs.StartMuted = cfg.Behavior.StartMuted
		prefs.PreferredAudioLanguage = cfg.Behavior.DefaultAudioLanguage
		prefs.PreferredTextLanguage = cfg.Behavior.DefaultTextLanguage
	}
	return prefs
}

func axinomToken(cfg *media.Configuration) string {
	if cfg.Advanced == nil || cfg.Advanced.DRM == nil {
		return ""
	}
	return cfg.Advanced.DRM.AxinomToken
}

func asEngineError(err error) *engine.Error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		return engErr
	}
	return engine.NewError(engine.CodeLoadInterrupted, err.Error())
}
