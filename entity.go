package stockroom

import (
	"fmt"
	"math"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Entity is an opaque handle: the low 32 bits are the index, the high 32 bits the generation.
// Entities are plain values and are the join key across every container.
type Entity uint64

// NullEntity never refers to a live entity.
const NullEntity Entity = math.MaxUint64

// maxEntityIndex is reserved so no live entity can ever equal NullEntity.
const maxEntityIndex = math.MaxUint32

// Pack builds an entity from its index and generation.
func Pack(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

func (e Entity) Generation() uint32 {
	return uint32(e >> 32)
}

func (e Entity) IsNull() bool {
	return e == NullEntity
}

func (e Entity) String() string {
	if e.IsNull() {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}

// entityPool issues entity handles. Freed indices are reused oldest first with their
// generation bumped, so handles held across a destroy stop resolving.
type entityPool struct {
	generations []uint32
	free        []uint32
	alive       bitmap.Bitmap
}

func (p *entityPool) create() (Entity, error) {
	if len(p.free) > 0 {
		index := p.free[0]
		p.free = p.free[1:]
		p.alive.Set(index)
		return Pack(index, p.generations[index]), nil
	}
	index := len(p.generations)
	if index >= maxEntityIndex {
		return NullEntity, eris.New("max number of entities exceeded")
	}
	p.generations = append(p.generations, 0)
	p.alive.Set(uint32(index))
	return Pack(uint32(index), 0), nil
}

func (p *entityPool) isAlive(e Entity) bool {
	index := e.Index()
	if int(index) >= len(p.generations) {
		return false
	}
	return p.alive.Contains(index) && p.generations[index] == e.Generation()
}

func (p *entityPool) destroy(e Entity) bool {
	if !p.isAlive(e) {
		return false
	}
	index := e.Index()
	p.alive.Remove(index)
	p.generations[index]++
	p.free = append(p.free, index)
	return true
}

func (p *entityPool) count() int {
	return p.alive.Count()
}

// rebuild derives pool state from a loaded existence list. Indices below the highest loaded
// index that are not alive become free, in ascending order.
func (p *entityPool) rebuild(entities []Entity) {
	p.generations = p.generations[:0]
	p.free = p.free[:0]
	p.alive.Clear()

	var top int
	for _, e := range entities {
		top = max(top, int(e.Index())+1)
	}
	p.generations = make([]uint32, top)
	for _, e := range entities {
		p.generations[e.Index()] = e.Generation()
		p.alive.Set(e.Index())
	}
	for i := 0; i < top; i++ {
		if !p.alive.Contains(uint32(i)) {
			p.free = append(p.free, uint32(i))
		}
	}
}
