// Package textcache caches rendered text textures keyed by string and font.
//
// Each distinct (text, font) pair is rendered once and kept until it is the
// oldest of [Cache]'s fixed number of entries.
package textcache

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/calvinalkan/slabtable/pkg/boundcache"
	"github.com/calvinalkan/slabtable/pkg/keys"
)

// MaxStringSize is the longest text, in bytes, a cache entry keeps. Longer
// strings are cut at the last complete rune that fits.
const MaxStringSize = 256

// ErrNoRenderer is returned by [New] when the renderer is nil.
var ErrNoRenderer = errors.New("textcache: renderer is required")

// FontID identifies a loaded font at a given size.
type FontID uint32

// Texture is an opaque handle to a rendered texture owned by the [Renderer].
type Texture uint64

// Renderer rasterizes text. Destroy is called exactly once for every
// texture a successful Render returned, when its entry is evicted or the
// cache is closed.
type Renderer interface {
	Render(text string, font FontID) (Texture, error)
	Destroy(tex Texture)
}

type label struct {
	text string
	font FontID
}

// Cache is a bounded text texture cache. It is not safe for concurrent use.
type Cache struct {
	entries *boundcache.Cache[label, Texture]
}

// New creates a cache holding up to capacity textures.
//
// Possible errors:
//   - [ErrNoRenderer]: r is nil
//   - [boundcache.ErrInvalidOptions]: capacity < 1
func New(capacity int, r Renderer) (*Cache, error) {
	if r == nil {
		return nil, ErrNoRenderer
	}

	entries, err := boundcache.New(boundcache.Options[label, Texture]{
		Capacity: capacity,
		Hash: func(l label) uint64 {
			return keys.HashString(l.text, uint64(l.font))
		},
		Create: func(l label) (Texture, error) {
			return r.Render(l.text, l.font)
		},
		Release: r.Destroy,
	})
	if err != nil {
		return nil, fmt.Errorf("textcache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Texture returns the texture for text in font, rendering it on a miss.
func (c *Cache) Texture(text string, font FontID) (Texture, error) {
	l := label{text: Truncate(text), font: font}

	tex, err := c.entries.GetOrCreate(l)
	if err != nil {
		return 0, fmt.Errorf("render %q: %w", l.text, err)
	}

	return tex, nil
}

// Cached reports whether text in font is cached, without rendering.
func (c *Cache) Cached(text string, font FontID) bool {
	_, ok := c.entries.Get(label{text: Truncate(text), font: font})

	return ok
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns hit, miss and eviction counters.
func (c *Cache) Stats() boundcache.Stats {
	return c.entries.Stats()
}

// Close destroys every cached texture. The cache stays usable.
func (c *Cache) Close() {
	c.entries.Purge()
}

// Truncate cuts s to at most [MaxStringSize] bytes without splitting a rune.
// Text that is not valid UTF-8 near the limit is cut at exactly
// MaxStringSize bytes.
func Truncate(s string) string {
	if len(s) <= MaxStringSize {
		return s
	}

	for back := range utf8.UTFMax {
		if utf8.RuneStart(s[MaxStringSize-back]) {
			return s[:MaxStringSize-back]
		}
	}

	return s[:MaxStringSize]
}
