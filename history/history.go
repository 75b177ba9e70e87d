// Package history provides the implementation for tracking and persisting playback resume positions.
package history

import (
	"time"

	"github.com/metafates/gache"

	"github.com/oriel-video/oriel/filesystem"
	"github.com/oriel-video/oriel/where"
)

// Entry records where playback of one video last stopped.
type Entry struct {
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

// cacher provides an abstracted, disk-backed registry keyed by video URL.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the complete collection of resume records from the persistent store.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Position returns the persisted resume position for a video URL, or false when none exists.
func Position(videoURL string) (float64, bool) {
	saved, err := Get()
	if err != nil {
		return 0, false
	}
	entry, ok := saved[videoURL]
	if !ok {
		return 0, false
	}
	return entry.Position, true
}

// Save persists the playback position of a video. The latest position always wins; rewinding
// and stopping earlier is a deliberate user action, not a regression to guard against.
func Save(videoURL string, position, duration float64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	saved[videoURL] = &Entry{
		Position:  position,
		Duration:  duration,
		UpdatedAt: time.Now(),
	}
	return cacher.Set(saved)
}

// Remove permanently deletes the resume record of a video.
func Remove(videoURL string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, videoURL)
	return cacher.Set(saved)
}
