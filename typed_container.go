package stockroom

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"

	"github.com/TheBitDrifter/stockroom/internal/assert"
)

var _ ContainerBase = &Container[Component]{}

// Container stores the components of type T, parallel to the dense entity slice of its
// embedded sparse set. Zero-sized (tag) types keep one shared instance and no slice.
type Container[T Component] struct {
	containerBase
	elem       table.ElementType
	id         TypeID
	name       string
	tag        bool
	shared     T
	components []T
}

// elementTypes holds one table element type per Go type for the whole process. Element types
// draw their ids from a global counter, so minting one per container would exhaust the
// signature bits.
var elementTypes = struct {
	sync.Mutex
	byType map[reflect.Type]table.ElementType
}{byType: make(map[reflect.Type]table.ElementType)}

func elementTypeFor[T Component]() table.ElementType {
	rt := reflect.TypeFor[T]()
	elementTypes.Lock()
	defer elementTypes.Unlock()
	elem, ok := elementTypes.byType[rt]
	if !ok {
		elem = table.FactoryNewElementType[T]()
		elementTypes.byType[rt] = elem
	}
	return elem
}

func newContainer[T Component]() *Container[T] {
	var zero T
	return &Container[T]{
		elem: elementTypeFor[T](),
		id:   TypeIDOf[T](),
		name: zero.Name(),
		tag:  isTagType[T](),
	}
}

func (c *Container[T]) TypeID() TypeID {
	return c.id
}

func (c *Container[T]) Name() string {
	return c.name
}

func (c *Container[T]) elementType() table.ElementType {
	return c.elem
}

func (c *Container[T]) Tag() bool {
	return c.tag
}

func (c *Container[T]) Has(e Entity) bool {
	return c.has(e)
}

func (c *Container[T]) Size() int {
	return c.size()
}

func (c *Container[T]) Entities() []Entity {
	return c.entities
}

// add attaches v to e and returns a pointer to the stored copy. Mutations go through the
// storage, which keeps signatures in step and refuses them while locked.
func (c *Container[T]) add(e Entity, v T) (*T, error) {
	if c.occupied(e.Index()) {
		return nil, ComponentExistsError{Entity: e, Component: c.name}
	}
	if c.tag {
		c.addEntity(e)
		return &c.shared, nil
	}
	c.components = append(c.components, v)
	c.addEntity(e)
	assert.That(len(c.components) == len(c.entities), "container %s: components length doesn't match entities", c.name)
	return &c.components[len(c.components)-1], nil
}

// remove detaches the component from e. The component slice and the entity slice are
// swap-erased at the same row, computed once before either is touched.
func (c *Container[T]) remove(e Entity) error {
	if !c.has(e) {
		return ComponentNotFoundError{Entity: e, Component: c.name}
	}
	row := c.row(e)
	if !c.tag {
		lastIndex := len(c.components) - 1
		c.components[row] = c.components[lastIndex]
		var zero T
		c.components[lastIndex] = zero
		c.components = c.components[:lastIndex]
	}
	c.removeRow(e, row)
	assert.That(c.tag || len(c.components) == len(c.entities), "container %s: components length doesn't match entities", c.name)
	return nil
}

// Get returns a pointer to e's component. The pointer aliases the dense slice and is
// invalidated by the next add or remove on this container.
func (c *Container[T]) Get(e Entity) (*T, error) {
	v, ok := c.TryGet(e)
	if !ok {
		return nil, ComponentNotFoundError{Entity: e, Component: c.name}
	}
	return v, nil
}

func (c *Container[T]) TryGet(e Entity) (*T, bool) {
	if !c.has(e) {
		return nil, false
	}
	if c.tag {
		return &c.shared, true
	}
	return &c.components[c.indirect[e.Index()]], true
}

// Raw returns the dense component slice, index-aligned with Entities. It is nil for tag types.
func (c *Container[T]) Raw() []T {
	return c.components
}

func (c *Container[T]) clear() {
	c.containerBase.clear()
	clear(c.components)
	c.components = c.components[:0]
}
