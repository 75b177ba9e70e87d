// Package playlist owns the playback cursor: the (playlistIndex, itemIndex) pair identifying
// the active item within a session's configuration. The cursor is the only mutable piece of
// the configuration side; everything else is derived from it.
package playlist

import (
	"fmt"
	"sync"

	"github.com/samber/mo"

	"github.com/oriel-video/oriel/media"
)

// Unset marks a cursor coordinate with no resolved item.
const Unset = -1

// Cursor tracks the active item of one player session. A cursor always points at exactly one
// item of the configuration or is fully unset at (-1, -1).
type Cursor struct {
	mu     sync.Mutex
	cfg    *media.Configuration
	pi, ii int

	nextID int
	subs   map[int]func(playlistIndex, itemIndex int)
}

// New returns an unset cursor over the given configuration.
func New(cfg *media.Configuration) *Cursor {
	return &Cursor{cfg: cfg, pi: Unset, ii: Unset}
}

// Indexes returns the current cursor coordinates.
func (c *Cursor) Indexes() (playlistIndex, itemIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pi, c.ii
}

// Current returns the active item, or none when the cursor is unset.
func (c *Cursor) Current() mo.Option[*media.VideoItem] {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.cfg.Item(c.pi, c.ii)
	if item == nil {
		return mo.None[*media.VideoItem]()
	}
	return mo.Some(item)
}

// Resolve positions the cursor at the first item whose URL matches the bootstrap URL. It
// reports whether a match was found; on no match the cursor is left untouched.
func (c *Cursor) Resolve(videoURL string) bool {
	c.mu.Lock()
	for pi, p := range c.cfg.Source.Playlist {
		for ii, item := range p.Items {
			if item.VideoURL == videoURL {
				c.setLocked(pi, ii)
				return true
			}
		}
	}
	c.mu.Unlock()
	return false
}

// LoadNewItem positions the cursor at an explicit location. Out-of-bounds locations are
// rejected and leave the cursor untouched.
func (c *Cursor) LoadNewItem(playlistIndex, itemIndex int) error {
	c.mu.Lock()
	if c.cfg.Item(playlistIndex, itemIndex) == nil {
		c.mu.Unlock()
		return fmt.Errorf("no item at playlist %d, index %d", playlistIndex, itemIndex)
	}
	c.setLocked(playlistIndex, itemIndex)
	return nil
}

// PlayNext advances the cursor to the next item, rolling over to the first item of the next
// non-empty playlist when the current one is exhausted. At the end of all content it reports
// false and the cursor stays put.
func (c *Cursor) PlayNext() bool {
	c.mu.Lock()
	if c.cfg.Item(c.pi, c.ii) == nil {
		c.mu.Unlock()
		return false
	}

	if c.cfg.Item(c.pi, c.ii+1) != nil {
		c.setLocked(c.pi, c.ii+1)
		return true
	}
	for pi := c.pi + 1; pi < len(c.cfg.Source.Playlist); pi++ {
		if len(c.cfg.Source.Playlist[pi].Items) > 0 {
			c.setLocked(pi, 0)
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// HasNext reports whether PlayNext would advance the cursor.
func (c *Cursor) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Item(c.pi, c.ii) == nil {
		return false
	}
	if c.cfg.Item(c.pi, c.ii+1) != nil {
		return true
	}
	for pi := c.pi + 1; pi < len(c.cfg.Source.Playlist); pi++ {
		if len(c.cfg.Source.Playlist[pi].Items) > 0 {
			return true
		}
	}
	return false
}

// HasPlaylist reports whether the configuration carries enough content for a playlist panel,
// i.e. more than a single item overall.
func (c *Cursor) HasPlaylist() bool {
	return c.cfg.TotalItems() > 1
}

// Subscribe registers a listener invoked after every cursor move. The returned function
// removes the subscription.
func (c *Cursor) Subscribe(fn func(playlistIndex, itemIndex int)) (unsubscribe func()) {
	c.mu.Lock()
	if c.subs == nil {
		c.subs = make(map[int]func(int, int))
	}
	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// setLocked moves the cursor and notifies subscribers. It must be called with the lock held
// and leaves it released.
func (c *Cursor) setLocked(playlistIndex, itemIndex int) {
	c.pi, c.ii = playlistIndex, itemIndex
	fns := make([]func(int, int), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(playlistIndex, itemIndex)
	}
}
