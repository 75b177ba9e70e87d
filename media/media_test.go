package media

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oriel-video/oriel/filesystem"
)

const rawConfiguration = `{
	"source": {
		"playlist": [
			{
				"id": "season-1",
				"title": "Season 1",
				"items": [
					{
						"videoURL": "https://cdn.example.com/ep1.mpd",
						"title": "Episode 1",
						"duration": 1320,
						"skipList": [{"title": "Skip Intro", "startTime": 10, "endTime": 95}],
						"markers": [
							{"startTime": 0, "endTime": 300, "label": "Opening", "type": "chapter"},
							{"startTime": 742, "endTime": 742, "label": "Goal", "type": "highlight"}
						]
					},
					{"videoURL": "https://cdn.example.com/ep2.mpd", "isLive": false}
				]
			}
		]
	},
	"behavior": {"startMuted": true, "defaultAudioLanguage": "de"},
	"ui": {"components": {"chromecast": false, "playlist": false}},
	"advanced": {
		"drm": {
			"servers": {"com.widevine.alpha": "https://drm.example.com/widevine"},
			"axinomToken": "token-123"
		},
		"engineConfig": {"abr": {"enabled": false}}
	}
}`

func TestParse(t *testing.T) {
	Convey("Parsing a host configuration", t, func() {
		cfg, err := Parse([]byte(rawConfiguration))
		So(err, ShouldBeNil)

		Convey("Should decode the content hierarchy", func() {
			So(cfg.Source.Playlist, ShouldHaveLength, 1)
			So(cfg.Source.Playlist[0].ID, ShouldEqual, "season-1")
			So(cfg.Source.Playlist[0].Items, ShouldHaveLength, 2)

			item := cfg.Source.Playlist[0].Items[0]
			So(item.VideoURL, ShouldEqual, "https://cdn.example.com/ep1.mpd")
			So(item.Duration, ShouldEqual, 1320)
			So(item.SkipList, ShouldHaveLength, 1)
			So(item.SkipList[0].EndTime, ShouldEqual, 95)
		})

		Convey("Should decode marker types", func() {
			markers := cfg.Source.Playlist[0].Items[0].Markers
			So(markers[0].Type, ShouldEqual, MarkerChapter)
			So(markers[1].Type, ShouldEqual, MarkerHighlight)
		})

		Convey("Should decode behavior and DRM settings", func() {
			So(cfg.Behavior.StartMuted, ShouldBeTrue)
			So(cfg.Behavior.DefaultAudioLanguage, ShouldEqual, "de")
			So(cfg.Advanced.DRM.AxinomToken, ShouldEqual, "token-123")
			So(cfg.Advanced.EngineConfig["abr"], ShouldResemble, map[string]any{"enabled": false})
		})

		Convey("Should reject malformed JSON", func() {
			_, err := Parse([]byte("{"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Configuration validation", t, func() {
		Convey("Should accept a configuration with playable content", func() {
			cfg, err := Parse([]byte(rawConfiguration))
			So(err, ShouldBeNil)
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("Should reject an empty source", func() {
			So((&Configuration{}).Validate(), ShouldEqual, ErrNoPlayableContent)
		})

		Convey("Should reject playlists with no items", func() {
			cfg := &Configuration{Source: Source{Playlist: []Playlist{{ID: "empty"}}}}
			So(cfg.Validate(), ShouldEqual, ErrNoPlayableContent)
		})
	})
}

func TestItemAccess(t *testing.T) {
	Convey("Item lookup", t, func() {
		cfg, err := Parse([]byte(rawConfiguration))
		So(err, ShouldBeNil)

		Convey("Should return items at valid cursor locations", func() {
			item := cfg.Item(0, 1)
			So(item, ShouldNotBeNil)
			So(item.VideoURL, ShouldEqual, "https://cdn.example.com/ep2.mpd")
		})

		Convey("Should return nil out of bounds", func() {
			So(cfg.Item(-1, 0), ShouldBeNil)
			So(cfg.Item(0, 2), ShouldBeNil)
			So(cfg.Item(1, 0), ShouldBeNil)
		})

		Convey("Should count items across playlists", func() {
			So(cfg.TotalItems(), ShouldEqual, 2)
		})
	})
}

func TestMergedComponents(t *testing.T) {
	Convey("Component visibility", t, func() {
		Convey("Should default every control to visible", func() {
			merged := (&Configuration{}).MergedComponents()
			So(merged[ComponentPlayPause], ShouldBeTrue)
			So(merged[ComponentChromecast], ShouldBeTrue)
		})

		Convey("Should overlay configured toggles on the defaults", func() {
			cfg, err := Parse([]byte(rawConfiguration))
			So(err, ShouldBeNil)

			merged := cfg.MergedComponents()
			So(merged[ComponentChromecast], ShouldBeFalse)
			So(merged[ComponentPlaylist], ShouldBeFalse)
			So(merged[ComponentFullscreen], ShouldBeTrue)
		})
	})
}

func TestLoad(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("Loading a configuration file", t, func() {
		So(filesystem.API().WriteFile("player.json", []byte(rawConfiguration), 0644), ShouldBeNil)

		cfg, err := Load("player.json")
		So(err, ShouldBeNil)
		So(cfg.TotalItems(), ShouldEqual, 2)

		Convey("Should report missing files", func() {
			_, err := Load("missing.json")
			So(err, ShouldNotBeNil)
		})
	})
}
