package cast

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oriel-video/oriel/config"
	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/filesystem"
	"github.com/oriel-video/oriel/media"
	"github.com/oriel-video/oriel/session"
	"github.com/oriel-video/oriel/state"
)

const vodURL = "https://cdn.example/movie.mpd"

func vodConfiguration() *media.Configuration {
	return &media.Configuration{
		Source: media.Source{Playlist: []media.Playlist{{
			ID: "main",
			Items: []media.VideoItem{{
				VideoURL:  vodURL,
				Title:     "Movie",
				PosterURL: "https://cdn.example/movie.jpg",
			}},
		}}},
	}
}

func vodEngine() *engine.Memory {
	eng := engine.NewMemory()
	eng.AddContent(vodURL, engine.Content{
		Duration: 600,
		Variants: []engine.VariantTrack{
			{ID: 1, Active: true, Width: 1920, Height: 1080, Bandwidth: 4000000, AudioID: 10, Language: "en"},
		},
	})
	return eng
}

// newCoordinator builds a running session plus a coordinator on a scripted clock. Advancing the
// returned time pointer moves the debounce window forward.
func newCoordinator(t *testing.T, cfg *media.Configuration) (*Coordinator, *session.Orchestrator, *engine.MemoryCast, *time.Time) {
	t.Helper()

	orc := session.New(state.New())
	So(orc.SetConfiguration(context.Background(), cfg), ShouldBeNil)
	orc.SetEngine(context.Background(), vodEngine())
	So(orc.Cursor().Resolve(vodURL), ShouldBeTrue)

	proxy := engine.NewMemoryCast()
	coord := New(orc, proxy)
	now := time.Now()
	coord.clock = func() time.Time { return now }
	coord.Start()
	return coord, orc, proxy, &now
}

func TestStateMachine(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()
	if err := config.Setup(); err != nil {
		t.Fatal(err)
	}

	Convey("Cast state machine", t, func() {
		coord, orc, proxy, now := newCoordinator(t, vodConfiguration())
		defer coord.Close()
		defer orc.Close(context.Background())

		Convey("No reachable receivers should report NO_DEVICES_AVAILABLE", func() {
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNoDevicesAvailable)
		})

		Convey("Receiver availability should move the state to NOT_CONNECTED", func() {
			*now = now.Add(time.Second)
			proxy.SetAvailable(true)
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNotConnected)

			*now = now.Add(time.Second)
			proxy.SetAvailable(false)
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNoDevicesAvailable)
		})

		Convey("Evaluations inside the debounce window should be swallowed", func() {
			*now = now.Add(time.Second)
			proxy.SetAvailable(true)
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNotConnected)

			*now = now.Add(100 * time.Millisecond)
			proxy.SetAvailable(false)
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNotConnected)

			*now = now.Add(time.Second)
			coord.Evaluate()
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNoDevicesAvailable)
		})

		Convey("Toggle with no devices should be a no-op", func() {
			So(coord.Toggle(context.Background()), ShouldBeNil)
			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNoDevicesAvailable)
		})
	})
}

func TestHandoff(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()
	if err := config.Setup(); err != nil {
		t.Fatal(err)
	}

	Convey("Handoff to a receiver and back", t, func() {
		coord, orc, proxy, now := newCoordinator(t, vodConfiguration())
		defer coord.Close()
		defer orc.Close(context.Background())
		eng := orc.Engine()
		m := eng.Media()

		*now = now.Add(time.Second)
		proxy.SetAvailable(true)
		proxy.SetReceiverName("Living Room TV")

		m.SetCurrentTime(120)
		m.SetVolume(0.8)
		So(m.Paused(), ShouldBeFalse)

		Convey("Connecting should capture local playback and silence the local element", func() {
			*now = now.Add(time.Second)
			So(coord.Toggle(context.Background()), ShouldBeNil)

			snap := orc.Store().Snapshot()
			So(snap.CastState, ShouldEqual, state.CastConnected)
			So(snap.CastDeviceName, ShouldEqual, "Living Room TV")
			So(proxy.RemoteStartTime, ShouldEqual, 120)
			So(m.Paused(), ShouldBeTrue)
			So(m.Muted(), ShouldBeTrue)

			Convey("Handback should reload at the captured position and restore playback", func() {
				*now = now.Add(time.Second)
				proxy.RemoteDisconnect()

				snap := orc.Store().Snapshot()
				So(snap.CastState, ShouldEqual, state.CastNotConnected)
				So(snap.CastDeviceName, ShouldEqual, "")
				So(m.CurrentTime(), ShouldEqual, 120)
				So(m.Volume(), ShouldEqual, 0.8)
				So(m.Muted(), ShouldBeFalse)
				So(m.Paused(), ShouldBeFalse)
			})

			Convey("Toggle while connected should suggest a disconnect and restore", func() {
				*now = now.Add(time.Second)
				So(coord.Toggle(context.Background()), ShouldBeNil)

				So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNotConnected)
				So(m.CurrentTime(), ShouldEqual, 120)
				So(m.Paused(), ShouldBeFalse)
			})
		})

		Convey("A paused handoff should stay paused after handback", func() {
			m.Pause()
			*now = now.Add(time.Second)
			So(coord.Toggle(context.Background()), ShouldBeNil)

			*now = now.Add(time.Second)
			proxy.RemoteDisconnect()
			So(m.Paused(), ShouldBeTrue)
			So(m.CurrentTime(), ShouldEqual, 120)
		})

		Convey("Cancellation should revert without touching local playback", func() {
			proxy.CastErr = engine.ErrCastCancelled

			*now = now.Add(time.Second)
			err := coord.Toggle(context.Background())
			So(err, ShouldEqual, engine.ErrCastCancelled)

			So(orc.Store().Snapshot().CastState, ShouldEqual, state.CastNotConnected)
			So(m.Paused(), ShouldBeFalse)
			So(m.Muted(), ShouldBeFalse)
			So(m.CurrentTime(), ShouldEqual, 120)

			Convey("and the discarded snapshot must not resurface on a later handback", func() {
				proxy.CastErr = nil
				m.SetCurrentTime(300)

				*now = now.Add(time.Second)
				So(coord.Toggle(context.Background()), ShouldBeNil)
				So(proxy.RemoteStartTime, ShouldEqual, 300)

				*now = now.Add(time.Second)
				proxy.RemoteDisconnect()
				So(m.CurrentTime(), ShouldEqual, 300)
			})
		})
	})
}

func TestAppData(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()
	if err := config.Setup(); err != nil {
		t.Fatal(err)
	}

	Convey("Receiver app data", t, func() {
		cfg := vodConfiguration()
		item := &cfg.Source.Playlist[0].Items[0]

		Convey("Content identity should be carried verbatim", func() {
			data := AppData(cfg, item)
			So(data["manifestUri"], ShouldEqual, vodURL)
			So(data["title"], ShouldEqual, "Movie")
			So(data["poster"], ShouldEqual, "https://cdn.example/movie.jpg")
		})

		Convey("The Axinom token should become a Widevine license request header", func() {
			cfg.Advanced = &media.Advanced{DRM: &media.DRMConfig{
				Servers:     map[string]string{"com.widevine.alpha": "https://drm.example/widevine"},
				AxinomToken: "secret-token",
				Advanced: map[string]map[string]any{
					"com.widevine.alpha": {"persistentStateRequired": true},
				},
			}}

			data := AppData(cfg, item)
			drm := data["playerConfiguration"].(map[string]any)["drm"].(map[string]any)
			So(drm, ShouldNotContainKey, "axinomToken")

			widevine := drm["advanced"].(map[string]any)["com.widevine.alpha"].(map[string]any)
			So(widevine["persistentStateRequired"], ShouldEqual, true)
			headers := widevine["licenseRequestHeaders"].(map[string]any)
			So(headers["X-AxDRM-Message"], ShouldEqual, "secret-token")

			servers := drm["servers"].(map[string]any)
			So(servers["com.widevine.alpha"], ShouldEqual, "https://drm.example/widevine")
		})

		Convey("Engine sub-configuration should be forwarded per concern", func() {
			cfg.Advanced = &media.Advanced{EngineConfig: map[string]any{
				"streaming": map[string]any{"bufferingGoal": 60.0},
				"abr":       map[string]any{"enabled": false},
				"ui":        map[string]any{"localOnly": true},
			}}

			player := AppData(cfg, item)["playerConfiguration"].(map[string]any)
			So(player["streaming"].(map[string]any)["bufferingGoal"], ShouldEqual, 60.0)
			So(player["abr"].(map[string]any)["enabled"], ShouldEqual, false)
			So(player["manifest"], ShouldResemble, map[string]any{})
			So(player, ShouldNotContainKey, "ui")
		})
	})
}
