package xgb

import (
	"sync"

	"github.com/pkg/errors"
)

// idAllocator hands out resource identifiers from the range described by
// the setup's resource id base and mask. Released ids are reused most
// recently released first.
type idAllocator struct {
	mu        sync.Mutex
	base      uint32
	mask      uint32
	inc       uint32
	last      uint32 // offset of the next fresh id
	exhausted bool
	free      []uint32
	released  map[uint32]struct{}
}

func newIdAllocator(base, mask uint32) *idAllocator {
	a := &idAllocator{
		base:     base,
		mask:     mask,
		inc:      mask & -mask,
		released: make(map[uint32]struct{}),
	}
	if a.inc == 0 {
		a.exhausted = true
	}
	return a
}

func (a *idAllocator) allocate() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		delete(a.released, id)
		return id, nil
	}
	if a.exhausted {
		return 0, ErrIdSpaceExhausted
	}

	id := a.base | a.last
	if a.last > a.mask-a.inc {
		a.exhausted = true
	} else {
		a.last += a.inc
	}
	return id, nil
}

func (a *idAllocator) release(id uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	off := id & a.mask
	if id&^a.mask != a.base {
		return errors.Wrapf(ErrIdNotLive, "id %#x outside range %#x/%#x", id, a.base, a.mask)
	}
	if !a.exhausted && off >= a.last {
		return errors.Wrapf(ErrIdNotLive, "id %#x was never issued", id)
	}
	if _, ok := a.released[id]; ok {
		return errors.Wrapf(ErrIdNotLive, "id %#x already released", id)
	}
	a.released[id] = struct{}{}
	a.free = append(a.free, id)
	return nil
}

// NewId returns a resource identifier that is not live, for use with
// requests like CreateWindow. It fails with ErrIdSpaceExhausted once every
// id in the client's range is live.
func (c *Conn) NewId() (uint32, error) {
	id, err := c.ids.allocate()
	if err != nil {
		c.log.WithError(err).Errorf("allocate resource id")
		return 0, err
	}
	return id, nil
}

// FreeId makes id available to NewId again. Call it after the resource has
// been destroyed or freed on the server.
func (c *Conn) FreeId(id uint32) error {
	return c.ids.release(id)
}
