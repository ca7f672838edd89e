package pitch

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// GridCache shares immutable grids between engines configured with the same surface.
// It is safe for concurrent use.
type GridCache struct {
	mx    sync.Mutex
	grids map[uint64]*Grid
}

func NewGridCache() *GridCache {
	return &GridCache{grids: make(map[uint64]*Grid)}
}

// Get returns the grid for (length, width, resolution), building it on first use.
// Invalid triples return the NewGrid error and are not cached.
func (c *GridCache) Get(length, width, resolution float64) (*Grid, error) {
	key := gridKey(length, width, resolution)

	c.mx.Lock()
	defer c.mx.Unlock()

	if g, ok := c.grids[key]; ok && g.length == length && g.width == width && g.resolution == resolution {
		return g, nil
	}

	g, err := NewGrid(length, width, resolution)
	if err != nil {
		return nil, err
	}
	c.grids[key] = g
	return g, nil
}

// Len reports how many distinct grids are cached.
func (c *GridCache) Len() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return len(c.grids)
}

func gridKey(length, width, resolution float64) uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(length))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(width))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(resolution))
	return xxhash.Sum64(buf[:])
}
