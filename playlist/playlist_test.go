package playlist

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oriel-video/oriel/media"
)

func testConfiguration() *media.Configuration {
	return &media.Configuration{
		Source: media.Source{
			Playlist: []media.Playlist{
				{
					ID: "season-1",
					Items: []media.VideoItem{
						{VideoURL: "https://cdn.example/s1e1.mpd", Title: "S1E1"},
						{VideoURL: "https://cdn.example/s1e2.mpd", Title: "S1E2"},
					},
				},
				{ID: "extras", Items: nil},
				{
					ID: "season-2",
					Items: []media.VideoItem{
						{VideoURL: "https://cdn.example/s2e1.mpd", Title: "S2E1"},
					},
				},
			},
		},
	}
}

func TestCursor(t *testing.T) {
	Convey("Cursor", t, func() {
		cursor := New(testConfiguration())

		Convey("Should start unset", func() {
			pi, ii := cursor.Indexes()

			So(pi, ShouldEqual, Unset)
			So(ii, ShouldEqual, Unset)
			So(cursor.Current().IsAbsent(), ShouldBeTrue)
		})

		Convey("Resolve should position at the item matching the bootstrap URL", func() {
			So(cursor.Resolve("https://cdn.example/s1e2.mpd"), ShouldBeTrue)

			pi, ii := cursor.Indexes()
			So(pi, ShouldEqual, 0)
			So(ii, ShouldEqual, 1)
			So(cursor.Current().MustGet().Title, ShouldEqual, "S1E2")
		})

		Convey("Resolve should leave the cursor untouched on no match", func() {
			So(cursor.Resolve("https://cdn.example/unknown.mpd"), ShouldBeFalse)
			So(cursor.Current().IsAbsent(), ShouldBeTrue)
		})

		Convey("LoadNewItem should reject out-of-bounds locations", func() {
			So(cursor.LoadNewItem(0, 5), ShouldNotBeNil)
			So(cursor.LoadNewItem(1, 0), ShouldNotBeNil)
			So(cursor.LoadNewItem(-1, 0), ShouldNotBeNil)
			So(cursor.Current().IsAbsent(), ShouldBeTrue)

			So(cursor.LoadNewItem(2, 0), ShouldBeNil)
			So(cursor.Current().MustGet().Title, ShouldEqual, "S2E1")
		})

		Convey("Subscribe should see every cursor move until unsubscribed", func() {
			var moves [][2]int
			unsubscribe := cursor.Subscribe(func(pi, ii int) {
				moves = append(moves, [2]int{pi, ii})
			})

			So(cursor.LoadNewItem(0, 0), ShouldBeNil)
			So(cursor.Resolve("https://cdn.example/s1e2.mpd"), ShouldBeTrue)
			unsubscribe()
			So(cursor.LoadNewItem(0, 0), ShouldBeNil)

			So(moves, ShouldResemble, [][2]int{{0, 0}, {0, 1}})
		})
	})
}

func TestPlayNext(t *testing.T) {
	Convey("PlayNext", t, func() {
		cursor := New(testConfiguration())

		Convey("Should be a no-op on an unset cursor", func() {
			So(cursor.PlayNext(), ShouldBeFalse)
		})

		Convey("Should advance within a playlist", func() {
			So(cursor.LoadNewItem(0, 0), ShouldBeNil)

			So(cursor.HasNext(), ShouldBeTrue)
			So(cursor.PlayNext(), ShouldBeTrue)
			So(cursor.Current().MustGet().Title, ShouldEqual, "S1E2")
		})

		Convey("Should roll over empty playlists to the next non-empty one", func() {
			So(cursor.LoadNewItem(0, 1), ShouldBeNil)

			So(cursor.HasNext(), ShouldBeTrue)
			So(cursor.PlayNext(), ShouldBeTrue)

			pi, ii := cursor.Indexes()
			So(pi, ShouldEqual, 2)
			So(ii, ShouldEqual, 0)
		})

		Convey("Should stay put at the end of all content", func() {
			So(cursor.LoadNewItem(2, 0), ShouldBeNil)

			So(cursor.HasNext(), ShouldBeFalse)
			So(cursor.PlayNext(), ShouldBeFalse)
			So(cursor.Current().MustGet().Title, ShouldEqual, "S2E1")
		})
	})

	Convey("HasPlaylist", t, func() {
		Convey("Should require more than one item overall", func() {
			So(New(testConfiguration()).HasPlaylist(), ShouldBeTrue)

			single := &media.Configuration{Source: media.Source{Playlist: []media.Playlist{
				{Items: []media.VideoItem{{VideoURL: "https://cdn.example/only.mpd"}}},
			}}}
			So(New(single).HasPlaylist(), ShouldBeFalse)
		})
	})
}
