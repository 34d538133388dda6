package raster3d

import "container/list"

// tileBuf is one decoded tile held in memory.
type tileBuf struct {
	index int
	data  []byte
	dirty bool
}

// tileCache is a write-back LRU of decoded tiles. Evicted dirty tiles are
// handed to flush before they are dropped.
type tileCache struct {
	capacity int
	order    *list.List // front = most recently used
	entries  map[int]*list.Element
	flush    func(*tileBuf) error
}

func newTileCache(capacity int, flush func(*tileBuf) error) *tileCache {
	if capacity < 1 {
		capacity = 1
	}
	return &tileCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[int]*list.Element, capacity),
		flush:    flush,
	}
}

func (c *tileCache) get(index int) (*tileBuf, bool) {
	el, ok := c.entries[index]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*tileBuf), true
}

// add inserts t, evicting the least recently used tile when full.
func (c *tileCache) add(t *tileBuf) error {
	for c.order.Len() >= c.capacity {
		if err := c.evict(c.order.Back()); err != nil {
			return err
		}
	}
	c.entries[t.index] = c.order.PushFront(t)
	return nil
}

func (c *tileCache) evict(el *list.Element) error {
	t := el.Value.(*tileBuf)
	if t.dirty {
		if err := c.flush(t); err != nil {
			return err
		}
	}
	c.order.Remove(el)
	delete(c.entries, t.index)
	return nil
}

// flushAll writes every dirty tile and keeps them cached as clean.
func (c *tileCache) flushAll() error {
	for el := c.order.Back(); el != nil; el = el.Prev() {
		t := el.Value.(*tileBuf)
		if !t.dirty {
			continue
		}
		if err := c.flush(t); err != nil {
			return err
		}
		t.dirty = false
	}
	return nil
}

// reset drops every cached tile without flushing.
func (c *tileCache) reset() {
	c.order.Init()
	clear(c.entries)
}

func (c *tileCache) len() int {
	return c.order.Len()
}
