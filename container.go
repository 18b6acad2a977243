package stockroom

import (
	"math"

	"github.com/TheBitDrifter/table"

	"github.com/TheBitDrifter/stockroom/archive"
	"github.com/TheBitDrifter/stockroom/internal/assert"
)

// npos marks an entity index that is not present in a container.
const npos = math.MaxUint64

// ContainerBase is the type-erased view of a Container[T]. It knows which entities a
// container holds and where, but nothing about the component payload.
type ContainerBase interface {
	TypeID() TypeID
	Name() string
	Has(Entity) bool
	Size() int
	// Entities returns the dense entity slice. It aliases container storage and must not be
	// retained across a mutation of the container.
	Entities() []Entity
	// Tag reports whether the component type is zero-sized.
	Tag() bool

	base() *containerBase
	elementType() table.ElementType
	remove(Entity) error
}

// containerBase is a sparse set: indirect maps an entity index to a dense slot in entities.
type containerBase struct {
	indirect []uint64
	entities []Entity
}

func (c *containerBase) base() *containerBase {
	return c
}

func (c *containerBase) has(e Entity) bool {
	index := e.Index()
	if int(index) >= len(c.indirect) {
		return false
	}
	slot := c.indirect[index]
	return slot != npos && c.entities[slot] == e
}

// occupied reports whether any generation of index is present.
func (c *containerBase) occupied(index uint32) bool {
	return int(index) < len(c.indirect) && c.indirect[index] != npos
}

func (c *containerBase) size() int {
	return len(c.entities)
}

// row returns the dense slot of e. Expects the caller to have checked has(e).
func (c *containerBase) row(e Entity) int {
	assert.That(c.has(e), "%v is not in container", e)
	return int(c.indirect[e.Index()])
}

// addEntity appends e to the dense slice and points its sparse slot at it. Expects the caller
// to have checked that no generation of e's index is present.
func (c *containerBase) addEntity(e Entity) {
	assert.That(!c.occupied(e.Index()), "index of %v is already in container", e)
	index := int(e.Index())
	if index >= len(c.indirect) {
		grown := max(index+1, 2*len(c.indirect))
		for len(c.indirect) < grown {
			c.indirect = append(c.indirect, npos)
		}
	}
	c.entities = append(c.entities, e)
	c.indirect[index] = uint64(len(c.entities) - 1)
}

// removeRow swaps the last dense entity into row and truncates. row must be the slot of e,
// computed before any parallel array was touched, so derived containers can apply the same
// swap to their component slice.
func (c *containerBase) removeRow(e Entity, row int) {
	assert.That(c.row(e) == row, "row %d does not hold %v", row, e)

	lastIndex := len(c.entities) - 1
	moved := c.entities[lastIndex]
	c.entities[row] = moved
	c.entities = c.entities[:lastIndex]

	c.indirect[e.Index()] = npos
	// If e was the last entity nothing moved.
	if row != lastIndex {
		c.indirect[moved.Index()] = uint64(row)
	}
}

// clear drops all entities while keeping the allocated sparse table.
func (c *containerBase) clear() {
	for _, e := range c.entities {
		c.indirect[e.Index()] = npos
	}
	c.entities = c.entities[:0]
}

// writeEntities writes the entity_list record: capacity, size and the dense entities.
func (c *containerBase) writeEntities(w *archive.Writer) error {
	if err := w.WriteUint64(uint64(cap(c.entities))); err != nil {
		return err
	}
	if err := w.WriteUint64(uint64(len(c.entities))); err != nil {
		return err
	}
	for _, e := range c.entities {
		if err := w.WriteUint64(uint64(e)); err != nil {
			return err
		}
	}
	return nil
}

// readEntities loads an entity_list record into an empty container, replaying addEntity for
// each entity in order.
func (c *containerBase) readEntities(r *archive.Reader) error {
	assert.That(len(c.entities) == 0, "reading entities into a non-empty container")

	capacity, err := r.ReadUint64()
	if err != nil {
		return err
	}
	size, err := r.ReadUint64()
	if err != nil {
		return err
	}
	if size > capacity {
		return archive.Corruptf(r.Offset(), "entity list size %d exceeds capacity %d", size, capacity)
	}
	for i := uint64(0); i < size; i++ {
		raw, err := r.ReadUint64()
		if err != nil {
			return err
		}
		e := Entity(raw)
		if e.IsNull() || e.Index() == maxEntityIndex {
			return archive.Corruptf(r.Offset(), "invalid entity %#x in entity list", raw)
		}
		if c.occupied(e.Index()) {
			return archive.Corruptf(r.Offset(), "duplicate index of %v in entity list", e)
		}
		c.addEntity(e)
	}
	return nil
}
