// Package bufpool provides tiered transfer buffers for file I/O.
//
// Reads and writes through an fs.Client are split into round trips of at
// most fs.MaxBytesPerRequest bytes. The tiers follow that shape:
//   - Small (4KB): directory entries, stat records, short files
//   - Medium (128KB): typical save-data files
//   - Trip (1MB): one full round trip
//
// Requests above the trip tier are allocated directly and never pooled, so
// a single large copy does not pin its buffer in memory.
//
// All operations are safe for concurrent use.
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"errors"
	"math"
	"sync"
)

const (
	// DefaultSmallSize holds a stat record or a short file.
	DefaultSmallSize = 4 << 10

	// DefaultMediumSize holds a typical save-data file.
	DefaultMediumSize = 128 << 10

	// DefaultTripSize matches the largest single I/O request.
	DefaultTripSize = 1 << 20
)

// ErrTooLarge is returned by GetElements when size*count overflows the
// 32-bit transfer length.
var ErrTooLarge = errors.New("bufpool: transfer length exceeds 32 bits")

// Config sizes the tiers of a Pool. Zero values select the defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	TripSize   int
}

// DefaultConfig returns the default tier sizes.
func DefaultConfig() Config {
	return Config{
		SmallSize:  DefaultSmallSize,
		MediumSize: DefaultMediumSize,
		TripSize:   DefaultTripSize,
	}
}

// Pool is a set of sync.Pools keyed by size class.
type Pool struct {
	tiers [3]tier
}

type tier struct {
	size int
	pool sync.Pool
}

// NewPool creates a pool. A nil cfg selects DefaultConfig.
func NewPool(cfg *Config) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.SmallSize > 0 {
			c.SmallSize = cfg.SmallSize
		}
		if cfg.MediumSize > 0 {
			c.MediumSize = cfg.MediumSize
		}
		if cfg.TripSize > 0 {
			c.TripSize = cfg.TripSize
		}
	}

	p := &Pool{}
	for i, size := range [3]int{c.SmallSize, c.MediumSize, c.TripSize} {
		size := size
		p.tiers[i].size = size
		p.tiers[i].pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// Get returns a slice of exactly size bytes. Its capacity is the tier size
// when size fits a tier. The contents are not zeroed.
func (p *Pool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	for i := range p.tiers {
		t := &p.tiers[i]
		if size <= t.size {
			buf := *t.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// GetElements returns a buffer for count elements of size bytes each.
func (p *Pool) GetElements(size, count uint32) ([]byte, error) {
	total := uint64(size) * uint64(count)
	if total > math.MaxUint32 {
		return nil, ErrTooLarge
	}
	return p.Get(int(total)), nil
}

// Put returns buf to its tier. Buffers whose capacity matches no tier are
// dropped.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for i := range p.tiers {
		t := &p.tiers[i]
		if cap(buf) == t.size {
			full := buf[:cap(buf)]
			t.pool.Put(&full)
			return
		}
	}
}

// TripSize returns the size of the largest pooled tier.
func (p *Pool) TripSize() int {
	return p.tiers[len(p.tiers)-1].size
}

var globalPool = NewPool(nil)

// Get returns a buffer from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// GetElements returns a buffer for count elements of size bytes from the
// global pool.
func GetElements(size, count uint32) ([]byte, error) {
	return globalPool.GetElements(size, count)
}

// Put returns buf to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
