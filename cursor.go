package stockroom

import (
	"iter"
)

var _ iCursor = &Cursor{}

func newCursor(query QueryNode, storage Storage) *Cursor {
	return &Cursor{
		query:   query,
		storage: storage,
	}
}

// Next advances to the next matching entity. The first call locks the storage and collects
// the matches; the call returning false resets the cursor and unlocks.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	if c.position < len(c.matched) {
		c.current = c.matched[c.position]
		c.position++
		return true
	}
	c.Reset()
	return false
}

// Entity returns the entity the cursor is positioned on.
func (c *Cursor) Entity() Entity {
	return c.current
}

func (c *Cursor) Entities() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		c.initialize()
		defer c.Reset()

		for c.position < len(c.matched) {
			i := c.position
			c.current = c.matched[i]
			c.position++
			if !yield(i, c.current) {
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.storage.Lock()

	sto := c.storage.impl()
	c.matched = c.matched[:0]
	for _, e := range sto.existence.entities {
		if c.query.Evaluate(sto.signatures[e.Index()], c.storage) {
			c.matched = append(c.matched, e)
		}
	}
	c.position = 0
	c.current = NullEntity
	c.initialized = true
}

// Reset rewinds the cursor and releases its lock on the storage.
func (c *Cursor) Reset() {
	if !c.initialized {
		return
	}
	c.position = 0
	c.current = NullEntity
	c.matched = c.matched[:0]
	c.initialized = false
	c.storage.impl().endIteration()
}

// TotalMatched returns the number of matching entities, locking the storage if the cursor
// has not started yet.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.initialize()
	}
	return len(c.matched)
}
