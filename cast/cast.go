// Package cast coordinates the handoff of playback between the local device and a remote cast
// receiver. It owns the four-position cast state machine and the capture/restore of local
// playback around a remote session.
package cast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/viper"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/key"
	"github.com/oriel-video/oriel/log"
	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/session"
	"github.com/oriel-video/oriel/state"
)

// minEvaluateInterval debounces state evaluation so chatty cast subsystems cannot flap the
// state machine.
const minEvaluateInterval = 500 * time.Millisecond

// axinomLicenseHeader is the protocol header form of the local-only Axinom token on the receiver.
const axinomLicenseHeader = "X-AxDRM-Message"

// playbackSnapshot is the local playback position captured at handoff. It is consumed exactly
// once on handback and never reused.
type playbackSnapshot struct {
	currentTime float64
	paused      bool
	volume      float64
}

// Coordinator drives cast state for one orchestrated session. Evaluation is funneled through a
// single idempotent check, fed by both the periodic poll and the proxy's status events.
type Coordinator struct {
	mu sync.Mutex

	orc   *session.Orchestrator
	proxy engine.CastProxy

	previous  state.CastState
	captured  mo.Option[playbackSnapshot]
	lastCheck time.Time

	clock          func() time.Time
	removeListener func()
	stopPoll       chan struct{}
	started        bool
}

// New returns a coordinator for the given session and cast subsystem. Call Start to begin
// observing, Close to stop.
func New(orc *session.Orchestrator, proxy engine.CastProxy) *Coordinator {
	return &Coordinator{
		orc:      orc,
		proxy:    proxy,
		previous: state.CastNoDevicesAvailable,
		clock:    time.Now,
	}
}

// Start runs an initial evaluation, subscribes to the proxy's status events and begins the
// periodic availability poll.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.stopPoll = make(chan struct{})
	stop := c.stopPoll
	c.mu.Unlock()

	c.evaluate(true)
	c.removeListener = c.proxy.AddListener(engine.CastEventStatusChanged, func(string, any) {
		c.evaluate(false)
	})

	interval := time.Duration(viper.GetInt(key.CastPollInterval)) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.evaluate(false)
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the poll and unsubscribes from the proxy. Closing twice is a no-op.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.started = false
	close(c.stopPoll)
	if c.removeListener != nil {
		c.removeListener()
		c.removeListener = nil
	}
}

// Toggle starts a remote session when none is active and suggests a disconnect otherwise.
// With no reachable receivers it is a no-op. User cancellation of the device picker is
// reported as engine.ErrCastCancelled after the state machine has been reverted.
func (c *Coordinator) Toggle(ctx context.Context) error {
	eng := c.orc.Engine()
	cfg := c.orc.Configuration()
	item := c.orc.CurrentItem()
	if eng == nil || cfg == nil || item == nil {
		return nil
	}

	switch c.orc.Store().Snapshot().CastState {
	case state.CastNoDevicesAvailable:
		return nil
	case state.CastConnected:
		c.proxy.SuggestDisconnect()
		c.evaluate(true)
		return nil
	}

	m := eng.Media()
	c.mu.Lock()
	c.captured = mo.Some(playbackSnapshot{
		currentTime: m.CurrentTime(),
		paused:      m.Paused(),
		volume:      m.Volume(),
	})
	c.previous = state.CastConnecting
	c.mu.Unlock()
	c.orc.Store().SetCastState(state.CastConnecting, "")

	c.proxy.SetAppData(AppData(cfg, item))
	if err := c.proxy.Cast(ctx, m.CurrentTime()); err != nil {
		// Nothing was torn down locally, so reverting needs no restoration.
		if !errors.Is(err, engine.ErrCastCancelled) {
			log.Errorf("cast initiation: %v", err)
		}
		c.mu.Lock()
		c.captured = mo.None[playbackSnapshot]()
		c.previous = state.CastNotConnected
		c.mu.Unlock()
		c.orc.Store().SetCastState(state.CastNotConnected, "")
		return err
	}

	c.evaluate(true)
	return nil
}

// Evaluate re-derives the cast state from the proxy, subject to the debounce interval. It is
// safe to call at any time; redundant evaluations converge to the same state.
func (c *Coordinator) Evaluate() {
	c.evaluate(false)
}

func (c *Coordinator) evaluate(force bool) {
	c.mu.Lock()

	now := c.clock()
	if !force && now.Sub(c.lastCheck) < minEvaluateInterval {
		c.mu.Unlock()
		return
	}
	c.lastCheck = now

	isCasting := c.proxy.IsCasting()

	newState := state.CastNoDevicesAvailable
	device := ""
	switch {
	case isCasting:
		newState = state.CastConnected
		device = c.proxy.ReceiverName()
	case c.proxy.CanCast():
		newState = state.CastNotConnected
	}

	previous := c.previous
	c.previous = newState

	var restore mo.Option[playbackSnapshot]
	eng := c.orc.Engine()

	if eng != nil && newState == state.CastConnected && previous != state.CastConnected {
		m := eng.Media()
		if c.captured.IsAbsent() {
			c.captured = mo.Some(playbackSnapshot{
				currentTime: m.CurrentTime(),
				paused:      m.Paused(),
				volume:      m.Volume(),
			})
		}
		// The remote session owns playback now; the local element must stay silent.
		m.SetMuted(true)
		m.Pause()
	}

	if eng != nil && newState != state.CastConnected && previous == state.CastConnected {
		restore = c.captured
		c.captured = mo.None[playbackSnapshot]()
	}
	c.mu.Unlock()

	if newState != previous {
		c.orc.Store().SetCastState(newState, device)
	}

	if snap, ok := restore.Get(); ok {
		c.restore(snap)
	}
}

// restore reloads the active item locally at the handoff position and reapplies the captured
// playback parameters. The snapshot has already been discarded by the caller.
func (c *Coordinator) restore(snap playbackSnapshot) {
	c.orc.Reestablish(context.Background())

	eng := c.orc.Engine()
	if eng == nil {
		return
	}
	m := eng.Media()
	m.SetCurrentTime(snap.currentTime)
	m.SetVolume(snap.volume)
	m.SetMuted(false)
	if snap.paused {
		m.Pause()
	} else if err := m.Play(); err != nil {
		log.Warnf("resume after cast handback: %v", err)
	}
}

// AppData builds the serialized session description for the cast receiver. Local-only concerns
// are excluded; the Axinom token is translated into the Widevine license request header the
// receiver protocol expects, and the local-only field is removed.
func AppData(cfg *media.Configuration, item *media.VideoItem) map[string]any {
	drm := map[string]any{}
	var token string
	if cfg.Advanced != nil && cfg.Advanced.DRM != nil {
		drm = toMap(*cfg.Advanced.DRM)
		token = cfg.Advanced.DRM.AxinomToken
	}

	if token != "" {
		advanced, _ := drm["advanced"].(map[string]any)
		if advanced == nil {
			advanced = map[string]any{}
		}
		widevine, _ := advanced["com.widevine.alpha"].(map[string]any)
		if widevine == nil {
			widevine = map[string]any{}
		}
		headers, _ := widevine["licenseRequestHeaders"].(map[string]any)
		if headers == nil {
			headers = map[string]any{}
		}
		headers[axinomLicenseHeader] = token
		widevine["licenseRequestHeaders"] = headers
		advanced["com.widevine.alpha"] = widevine
		drm["advanced"] = advanced
		delete(drm, "axinomToken")
	}

	var engineCfg map[string]any
	if cfg.Advanced != nil {
		engineCfg = cfg.Advanced.EngineConfig
	}
	sub := func(name string) map[string]any {
		if m, ok := engineCfg[name].(map[string]any); ok {
			return m
		}
		return map[string]any{}
	}

	return map[string]any{
		"manifestUri": item.VideoURL,
		"title":       item.Title,
		"poster":      item.PosterURL,
		"playerConfiguration": map[string]any{
			"drm":       drm,
			"manifest":  sub("manifest"),
			"streaming": sub("streaming"),
			"abr":       sub("abr"),
		},
	}
}

// toMap round-trips a value through JSON into a generic map, detaching it from the original.
func toMap(v any) map[string]any {
	out := map[string]any{}
	raw, err := json.Marshal(v)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
