package state

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oriel-video/oriel/engine"
	"github.com/oriel-video/oriel/media"
)

func TestStore(t *testing.T) {
	Convey("Store", t, func() {
		store := New()

		Convey("Should start at the idle baseline", func() {
			snap := store.Snapshot()

			So(snap.Ready, ShouldBeFalse)
			So(snap.Volume, ShouldEqual, 1)
			So(snap.ABREnabled, ShouldBeTrue)
			So(snap.CastState, ShouldEqual, CastNoDevicesAvailable)
		})

		Convey("Snapshots should be copies, not views", func() {
			store.SetAdCuePoints([]float64{10, 20})

			snap := store.Snapshot()
			snap.AdCuePoints[0] = 999

			So(store.Snapshot().AdCuePoints, ShouldResemble, []float64{10, 20})

			store.SetComponents(map[string]bool{"playPause": true})
			snap = store.Snapshot()
			snap.Components["playPause"] = false

			So(store.Snapshot().Components["playPause"], ShouldBeTrue)
		})

		Convey("Subscribe should deliver a snapshot per mutation and stop after unsubscribe", func() {
			var seen []bool
			unsubscribe := store.Subscribe(func(snap Snapshot) {
				seen = append(seen, snap.Playing)
			})

			store.SetPlaying(true)
			store.SetPlaying(false)
			unsubscribe()
			unsubscribe()
			store.SetPlaying(true)

			So(seen, ShouldResemble, []bool{true, false})
		})

		Convey("SetError should halt playing and buffering", func() {
			store.SetPlaying(true)
			store.SetBuffering(true)

			store.SetError(engine.NewError(engine.CodeBadHTTPStatus, "origin down"))

			snap := store.Snapshot()
			So(snap.Error, ShouldNotBeNil)
			So(snap.Playing, ShouldBeFalse)
			So(snap.Buffering, ShouldBeFalse)
		})

		Convey("SetCurrentTime should carry the active skip interval", func() {
			skip := &media.SkipInterval{Title: "Skip Intro", StartTime: 5, EndTime: 90}

			store.SetCurrentTime(12, skip)

			snap := store.Snapshot()
			So(snap.CurrentTime, ShouldEqual, 12)
			So(snap.ActiveSkip, ShouldEqual, skip)

			store.SetCurrentTime(95, nil)
			So(store.Snapshot().ActiveSkip, ShouldBeNil)
		})

		Convey("ResetForLoad should restore the loading baseline and keep volume", func() {
			store.SetPlaying(true)
			store.SetVolume(0.4, true)
			store.SetError(engine.NewError(engine.CodeTimeout, "timeout"))
			store.SetAdPlaying(true)

			store.ResetForLoad()

			snap := store.Snapshot()
			So(snap.Ready, ShouldBeTrue)
			So(snap.ContentLoaded, ShouldBeFalse)
			So(snap.Playing, ShouldBeFalse)
			So(snap.Buffering, ShouldBeTrue)
			So(snap.Error, ShouldBeNil)
			So(snap.CurrentTime, ShouldEqual, 0)
			So(snap.Duration, ShouldEqual, 0)
			So(snap.AdPlaying, ShouldBeFalse)
			So(snap.Volume, ShouldEqual, 0.4)
			So(snap.Muted, ShouldBeTrue)
		})
	})
}

func TestStoreSelectors(t *testing.T) {
	Convey("Snapshot selectors", t, func() {
		store := New()
		store.SetTracks(
			[]VideoTrack{{ID: 1, Height: 1080}, {ID: 2, Height: 720, Active: true}},
			[]AudioTrack{{ID: 10, Language: "en", Active: true}, {ID: 11, Language: "ja"}},
			[]TextTrack{{ID: 20, Language: "en"}},
		)

		Convey("Active track selectors should find the flagged entry", func() {
			snap := store.Snapshot()

			So(snap.ActiveVideoTrack().MustGet().ID, ShouldEqual, 2)
			So(snap.ActiveAudioTrack().MustGet().ID, ShouldEqual, 10)
			So(snap.ActiveTextTrack().IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestOptimisticOverlay(t *testing.T) {
	Convey("Optimistic selection overlay", t, func() {
		store := New()
		store.SetTracks(
			nil,
			[]AudioTrack{{ID: 10, Language: "en", Active: true}, {ID: 11, Language: "ja"}},
			nil,
		)

		Convey("Pending selection should be reported active immediately", func() {
			store.SetPendingAudioTrack(11)

			snap := store.Snapshot()
			So(snap.PendingAudioTrack.MustGet(), ShouldEqual, 11)
			So(snap.ActiveAudioTrack().MustGet().ID, ShouldEqual, 11)
		})

		Convey("Resync converging on the pending id should clear the overlay", func() {
			store.SetPendingAudioTrack(11)

			store.SetTracks(
				nil,
				[]AudioTrack{{ID: 10, Language: "en"}, {ID: 11, Language: "ja", Active: true}},
				nil,
			)

			snap := store.Snapshot()
			So(snap.PendingAudioTrack.IsAbsent(), ShouldBeTrue)
			So(snap.ActiveAudioTrack().MustGet().ID, ShouldEqual, 11)
		})

		Convey("Resync on a different id should keep the overlay in place", func() {
			store.SetPendingAudioTrack(11)

			store.SetTracks(
				nil,
				[]AudioTrack{{ID: 10, Language: "en", Active: true}, {ID: 11, Language: "ja"}},
				nil,
			)

			So(store.Snapshot().ActiveAudioTrack().MustGet().ID, ShouldEqual, 11)
		})

		Convey("Overlay should fall back to authoritative state after the time bound", func() {
			now := time.Now()
			store.clock = func() time.Time { return now }
			store.SetPendingAudioTrack(11)

			now = now.Add(4 * time.Second)

			snap := store.Snapshot()
			So(snap.PendingAudioTrack.IsAbsent(), ShouldBeTrue)
			So(snap.ActiveAudioTrack().MustGet().ID, ShouldEqual, 10)
		})

		Convey("Video overlay should behave the same way", func() {
			store.SetTracks([]VideoTrack{{ID: 1, Height: 1080, Active: true}, {ID: 2, Height: 720}}, nil, nil)
			store.SetPendingVideoTrack(2)

			So(store.Snapshot().ActiveVideoTrack().MustGet().ID, ShouldEqual, 2)

			store.SetTracks([]VideoTrack{{ID: 1, Height: 1080}, {ID: 2, Height: 720, Active: true}}, nil, nil)
			So(store.Snapshot().PendingVideoTrack.IsAbsent(), ShouldBeTrue)
		})

		Convey("ResetForLoad should drop pending selections", func() {
			store.SetPendingAudioTrack(11)

			store.ResetForLoad()

			So(store.Snapshot().PendingAudioTrack.IsAbsent(), ShouldBeTrue)
		})
	})
}
