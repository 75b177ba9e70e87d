package engine

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func testContent() Content {
	return Content{
		Duration: 600,
		Variants: []VariantTrack{
			{ID: 1, Active: true, Width: 1920, Height: 1080, Bandwidth: 4000000, AudioID: 10, Language: "en"},
			{ID: 2, Width: 1280, Height: 720, Bandwidth: 2000000, AudioID: 10, Language: "en"},
			{ID: 3, Width: 1920, Height: 1080, Bandwidth: 4200000, AudioID: 11, Language: "ja"},
		},
		Texts: []TextTrack{
			{ID: 20, Language: "en", Label: "English", Kind: "subtitles"},
			{ID: 21, Language: "ja", Label: "Japanese", Kind: "subtitles"},
		},
	}
}

func TestMemoryLoad(t *testing.T) {
	Convey("Memory Load", t, func() {
		eng := NewMemory()
		eng.AddContent("https://cdn.example/main.mpd", testContent())

		Convey("Should load registered content and expose tracks", func() {
			err := eng.Load(context.Background(), "https://cdn.example/main.mpd", 42)

			So(err, ShouldBeNil)
			So(eng.Loaded(), ShouldBeTrue)
			So(eng.IsLive(), ShouldBeFalse)
			So(eng.SeekRange(), ShouldResemble, SeekRange{Start: 0, End: 600})
			So(eng.VariantTracks(), ShouldHaveLength, 3)
			So(eng.TextTracks(), ShouldHaveLength, 2)
			So(eng.Media().CurrentTime(), ShouldEqual, 42)
			So(eng.Media().Paused(), ShouldBeTrue)
		})

		Convey("Should emit manifest and track events on load", func() {
			var events []string
			eng.AddListener(EventManifestParsed, func(event string, _ any) {
				events = append(events, event)
			})
			eng.AddListener(EventTracksChanged, func(event string, _ any) {
				events = append(events, event)
			})

			err := eng.Load(context.Background(), "https://cdn.example/main.mpd", 0)

			So(err, ShouldBeNil)
			So(events, ShouldResemble, []string{EventManifestParsed, EventTracksChanged})
		})

		Convey("Should fail for unregistered content", func() {
			err := eng.Load(context.Background(), "https://cdn.example/missing.mpd", 0)

			So(err, ShouldNotBeNil)
			So(eng.Loaded(), ShouldBeFalse)
		})

		Convey("Should fail when the content is scripted to fail", func() {
			bad := testContent()
			bad.LoadErr = NewError(CodeBadHTTPStatus, "503 from origin")
			eng.AddContent("https://cdn.example/bad.mpd", bad)

			err := eng.Load(context.Background(), "https://cdn.example/bad.mpd", 0)

			So(err, ShouldNotBeNil)
			var engErr *Error
			So(errors.As(err, &engErr), ShouldBeTrue)
			So(engErr.Code, ShouldEqual, CodeBadHTTPStatus)
		})

		Convey("Should honor a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := eng.Load(ctx, "https://cdn.example/main.mpd", 0)

			So(err, ShouldNotBeNil)
		})

		Convey("Should run manifest request filters before lookup", func() {
			eng.Networking().Register(func(reqType RequestType, req *Request) {
				So(reqType, ShouldEqual, RequestManifest)
				req.Headers["Authorization"] = "Bearer token"
			})

			err := eng.Load(context.Background(), "https://cdn.example/main.mpd", 0)

			So(err, ShouldBeNil)
			So(eng.LoadRequests, ShouldHaveLength, 1)
			So(eng.LoadRequests[0].Headers["Authorization"], ShouldEqual, "Bearer token")
		})
	})

	Convey("Memory Unload", t, func() {
		eng := NewMemory()
		eng.AddContent("https://cdn.example/main.mpd", testContent())
		So(eng.Load(context.Background(), "https://cdn.example/main.mpd", 0), ShouldBeNil)

		Convey("Should clear all presentation state", func() {
			err := eng.Unload(context.Background())

			So(err, ShouldBeNil)
			So(eng.Loaded(), ShouldBeFalse)
			So(eng.VariantTracks(), ShouldBeEmpty)
			So(eng.TextTracks(), ShouldBeEmpty)
		})

		Convey("Should be a no-op on an idle engine", func() {
			So(eng.Unload(context.Background()), ShouldBeNil)
			So(eng.Unload(context.Background()), ShouldBeNil)
		})
	})
}

func TestMemoryLive(t *testing.T) {
	Convey("Memory Live", t, func() {
		eng := NewMemory()
		eng.AddContent("https://cdn.example/live.mpd", Content{
			Live:      true,
			SeekRange: SeekRange{Start: 100, End: 1900},
			Variants:  []VariantTrack{{ID: 1, Active: true, Width: 1280, Height: 720, Bandwidth: 2000000}},
		})
		So(eng.Load(context.Background(), "https://cdn.example/live.mpd", 0), ShouldBeNil)

		Convey("Should report the scripted DVR window", func() {
			So(eng.IsLive(), ShouldBeTrue)
			So(eng.SeekRange(), ShouldResemble, SeekRange{Start: 100, End: 1900})
			So(eng.SeekRange().Width(), ShouldEqual, 1800)
		})

		Convey("Should shift the window on AdvanceLiveWindow", func() {
			eng.AdvanceLiveWindow(10)

			So(eng.SeekRange(), ShouldResemble, SeekRange{Start: 110, End: 1910})
		})
	})
}

func TestMemoryTrackSelection(t *testing.T) {
	Convey("Memory Track Selection", t, func() {
		eng := NewMemory()
		eng.AddContent("https://cdn.example/main.mpd", testContent())
		So(eng.Load(context.Background(), "https://cdn.example/main.mpd", 0), ShouldBeNil)

		Convey("SelectVariantTrack should activate exactly one variant and disable ABR", func() {
			adaptations := 0
			eng.AddListener(EventAdaptation, func(string, any) { adaptations++ })

			err := eng.SelectVariantTrack(2, true)

			So(err, ShouldBeNil)
			So(adaptations, ShouldEqual, 1)
			So(eng.ABREnabled(), ShouldBeFalse)
			for _, track := range eng.VariantTracks() {
				So(track.Active, ShouldEqual, track.ID == 2)
			}
		})

		Convey("SelectVariantTrack should reject unknown ids", func() {
			So(eng.SelectVariantTrack(99, false), ShouldNotBeNil)
		})

		Convey("SelectAudioLanguage should pick the highest-bandwidth variant for the language", func() {
			err := eng.SelectAudioLanguage("ja")

			So(err, ShouldBeNil)
			for _, track := range eng.VariantTracks() {
				So(track.Active, ShouldEqual, track.ID == 3)
			}
		})

		Convey("SelectAudioLanguage should reject unknown languages", func() {
			So(eng.SelectAudioLanguage("xx"), ShouldNotBeNil)
		})

		Convey("SelectTextTrack should activate exactly one text track", func() {
			err := eng.SelectTextTrack(21)

			So(err, ShouldBeNil)
			for _, track := range eng.TextTracks() {
				So(track.Active, ShouldEqual, track.ID == 21)
			}
		})

		Convey("Text visibility should only fire on change", func() {
			fired := 0
			eng.AddListener(EventTextTrackVisibility, func(string, any) { fired++ })

			eng.SetTextTrackVisibility(true)
			eng.SetTextTrackVisibility(true)
			eng.SetTextTrackVisibility(false)

			So(fired, ShouldEqual, 2)
			So(eng.TextTrackVisible(), ShouldBeFalse)
		})
	})
}

func TestMemoryMedia(t *testing.T) {
	Convey("Memory Media", t, func() {
		eng := NewMemory()
		eng.AddContent("https://cdn.example/main.mpd", testContent())
		So(eng.Load(context.Background(), "https://cdn.example/main.mpd", 0), ShouldBeNil)
		media := eng.Media().(*MemoryMedia)

		Convey("Play and Pause should emit once per transition", func() {
			var events []string
			media.AddListener(EventPlaying, func(event string, _ any) { events = append(events, event) })
			media.AddListener(EventPause, func(event string, _ any) { events = append(events, event) })

			So(media.Play(), ShouldBeNil)
			So(media.Play(), ShouldBeNil)
			media.Pause()
			media.Pause()

			So(events, ShouldResemble, []string{EventPlaying, EventPause})
		})

		Convey("Play should fail while autoplay is blocked", func() {
			media.BlockAutoplay = true

			So(media.Play(), ShouldNotBeNil)
			So(media.Paused(), ShouldBeTrue)
		})

		Convey("AdvanceTime should move the clock and emit timeupdate", func() {
			updates := 0
			media.AddListener(EventTimeUpdate, func(string, any) { updates++ })

			media.AdvanceTime(1.5)
			media.AdvanceTime(1.5)

			So(media.CurrentTime(), ShouldEqual, 3)
			So(updates, ShouldEqual, 2)
		})

		Convey("FinishPlayback should land on the duration and emit ended", func() {
			ended := false
			media.AddListener(EventEnded, func(string, any) { ended = true })

			media.FinishPlayback()

			So(ended, ShouldBeTrue)
			So(media.CurrentTime(), ShouldEqual, media.Duration())
			So(media.Paused(), ShouldBeTrue)
		})

		Convey("Volume and mute changes should emit volumechange", func() {
			changes := 0
			media.AddListener(EventVolumeChange, func(string, any) { changes++ })

			media.SetVolume(0.5)
			media.SetVolume(0.5)
			media.SetMuted(true)

			So(changes, ShouldEqual, 2)
			So(media.Volume(), ShouldEqual, 0.5)
			So(media.Muted(), ShouldBeTrue)
		})

		Convey("Fullscreen denial should not change container state", func() {
			container := media.Container().(*MemoryContainer)
			container.DenyFullscreen = true

			So(container.RequestFullscreen(), ShouldNotBeNil)
			So(container.FullscreenActive(), ShouldBeFalse)
		})
	})
}

func TestMemoryAds(t *testing.T) {
	Convey("Memory Ads", t, func() {
		eng := NewMemory()
		ads := eng.Ads().(*MemoryAds)
		ads.Init(nil, eng.Media())

		Convey("StartAd and CompleteAd should toggle the displayed flag", func() {
			var events []string
			ads.AddListener(AdEventStarted, func(event string, _ any) { events = append(events, event) })
			ads.AddListener(AdEventComplete, func(event string, _ any) { events = append(events, event) })

			ad := ads.StartAd()
			So(ads.AdDisplayed(), ShouldBeTrue)
			So(ads.CurrentAd(), ShouldEqual, ad)

			ads.CompleteAd()
			So(ads.AdDisplayed(), ShouldBeFalse)
			So(ads.CurrentAd(), ShouldBeNil)
			So(events, ShouldResemble, []string{AdEventStarted, AdEventComplete})
		})

		Convey("Ads should pause and resume independently", func() {
			ad := ads.StartAd()

			So(ad.Paused(), ShouldBeFalse)
			ad.Pause()
			So(ad.Paused(), ShouldBeTrue)
			ad.Resume()
			So(ad.Paused(), ShouldBeFalse)
		})

		Convey("FailAd should end the break and carry the error", func() {
			var got *Error
			ads.AddListener(AdEventError, func(_ string, data any) { got = data.(*Error) })
			ads.StartAd()

			ads.FailAd(NewError(CodeBadHTTPStatus, "ad tag unreachable"))

			So(ads.AdDisplayed(), ShouldBeFalse)
			So(got, ShouldNotBeNil)
			So(got.Code, ShouldEqual, CodeBadHTTPStatus)
		})

		Convey("Release should drop state and allow re-init", func() {
			ads.StartAd()
			ads.Release()

			So(ads.Initialized(), ShouldBeFalse)
			So(ads.AdDisplayed(), ShouldBeFalse)
		})
	})
}

func TestMemoryCast(t *testing.T) {
	Convey("Memory Cast", t, func() {
		cast := NewMemoryCast()
		cast.SetReceiverName("Living Room TV")

		Convey("Should report no receiver name until connected", func() {
			So(cast.CanCast(), ShouldBeFalse)
			So(cast.ReceiverName(), ShouldBeEmpty)
		})

		Convey("Cast should connect and record the start position", func() {
			statusChanges := 0
			cast.AddListener(CastEventStatusChanged, func(string, any) { statusChanges++ })
			cast.SetAvailable(true)

			err := cast.Cast(context.Background(), 128.5)

			So(err, ShouldBeNil)
			So(cast.IsCasting(), ShouldBeTrue)
			So(cast.ReceiverName(), ShouldEqual, "Living Room TV")
			So(cast.RemoteStartTime, ShouldEqual, 128.5)
			So(statusChanges, ShouldEqual, 2)
		})

		Convey("Cast should surface a scripted cancellation", func() {
			cast.CastErr = ErrCastCancelled

			err := cast.Cast(context.Background(), 0)

			So(err, ShouldEqual, ErrCastCancelled)
			So(cast.IsCasting(), ShouldBeFalse)
		})

		Convey("SuggestDisconnect should end the session once", func() {
			So(cast.Cast(context.Background(), 0), ShouldBeNil)
			statusChanges := 0
			cast.AddListener(CastEventStatusChanged, func(string, any) { statusChanges++ })

			cast.SuggestDisconnect()
			cast.SuggestDisconnect()

			So(cast.IsCasting(), ShouldBeFalse)
			So(statusChanges, ShouldEqual, 1)
		})
	})
}

func TestEmitter(t *testing.T) {
	Convey("Emitter", t, func() {
		var e Emitter

		Convey("Removal functions should be exact and idempotent", func() {
			calls := 0
			fn := func(string, any) { calls++ }
			remove := e.On("tick", fn)
			e.On("tick", fn)

			remove()
			remove()
			e.Emit("tick", nil)

			So(calls, ShouldEqual, 1)
		})

		Convey("Emit should be a no-op with no listeners", func() {
			So(func() { e.Emit("tick", nil) }, ShouldNotPanic)
		})
	})
}

func TestFilterRegistry(t *testing.T) {
	Convey("FilterRegistry", t, func() {
		var r FilterRegistry

		Convey("Filters should run in registration order", func() {
			var order []string
			r.Register(func(_ RequestType, req *Request) { order = append(order, "first") })
			r.Register(func(_ RequestType, req *Request) { order = append(order, "second") })

			r.Apply(RequestLicense, &Request{Headers: map[string]string{}})

			So(order, ShouldResemble, []string{"first", "second"})
		})

		Convey("Identical filters registered twice should be tracked independently", func() {
			calls := 0
			fn := func(RequestType, *Request) { calls++ }
			h1 := r.Register(fn)
			r.Register(fn)
			r.Unregister(h1)

			r.Apply(RequestSegment, &Request{})

			So(r.Len(), ShouldEqual, 1)
			So(calls, ShouldEqual, 1)
		})

		Convey("Unregistering an unknown handle should be ignored", func() {
			So(func() { r.Unregister(42) }, ShouldNotPanic)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Engine Errors", t, func() {
		Convey("NewError should derive the category from the code", func() {
			So(NewError(CodeBadHTTPStatus, "x").Category, ShouldEqual, CategoryNetwork)
			So(NewError(CodeManifestInvalid, "x").Category, ShouldEqual, CategoryManifest)
			So(NewError(CodeLicenseRequestFailed, "x").Category, ShouldEqual, CategoryDRM)
		})

		Convey("Format should map known codes to friendly text", func() {
			So(Format(NewError(CodeTimeout, "x")).Title, ShouldEqual, "Network Problem")
			So(Format(NewError(CodeManifestParserError, "x")).Title, ShouldEqual, "Invalid Video File")
			So(Format(NewError(CodeKeySystemUnavailable, "x")).Title, ShouldEqual, "Content Protection Error")
			So(Format(NewError(CodeLoadInterrupted, "x")).Title, ShouldEqual, "Loading Canceled")
		})

		Convey("Format should fall back to a generic message carrying the code", func() {
			formatted := Format(NewError(Code(9999), "x"))

			So(formatted.Title, ShouldEqual, "Playback Error")
			So(formatted.Message, ShouldContainSubstring, "9999")
		})
	})
}

func TestConfigMerge(t *testing.T) {
	Convey("Engine Config", t, func() {
		Convey("UniversalConfig should carry the resilience baseline", func() {
			cfg := UniversalConfig()

			So(cfg.Retry.MaxAttempts, ShouldEqual, 4)
			So(cfg.DRM.Retry.Timeout, ShouldEqual, 15000)
			So(cfg.ABR.DefaultBandwidthEstimate, ShouldEqual, 5000000)
			So(cfg.Streaming.BufferingGoal, ShouldEqual, 90)
			So(cfg.Manifest.DASH.IgnoreMinBufferTime, ShouldBeTrue)
			So(cfg.Manifest.HLS.IgnoreTextStreamFailures, ShouldBeTrue)
		})

		Convey("MergeRaw should override named leaves and keep the rest", func() {
			merged, err := MergeRaw(UniversalConfig(), map[string]any{
				"streaming": map[string]any{"bufferingGoal": 30.0},
			})

			So(err, ShouldBeNil)
			So(merged.Streaming.BufferingGoal, ShouldEqual, 30)
			So(merged.Streaming.RebufferingGoal, ShouldEqual, 4)
			So(merged.Retry.MaxAttempts, ShouldEqual, 4)
		})

		Convey("MergeRaw should merge nested maps recursively", func() {
			merged, err := MergeRaw(UniversalConfig(), map[string]any{
				"manifest": map[string]any{
					"hls": map[string]any{"defaultAudioCodec": "ec-3"},
				},
			})

			So(err, ShouldBeNil)
			So(merged.Manifest.HLS.DefaultAudioCodec, ShouldEqual, "ec-3")
			So(merged.Manifest.HLS.IgnoreTextStreamFailures, ShouldBeTrue)
			So(merged.Manifest.DASH.IgnoreMinBufferTime, ShouldBeTrue)
		})

		Convey("MergeRaw with an empty override should return the input", func() {
			cfg := UniversalConfig()
			merged, err := MergeRaw(cfg, nil)

			So(err, ShouldBeNil)
			So(merged, ShouldResemble, cfg)
		})
	})
}
