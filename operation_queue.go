package stockroom

import (
	"github.com/rotisserie/eris"
)

type operation struct {
	typ      operationType
	amount   int
	entities []Entity
	id       TypeID
	// apply performs a queued component operation against the unlocked storage.
	apply func(sto *storage) error
}

type operationType int

const (
	opNoop operationType = iota - 1
	opCreate
	opDestroy
	opAddComponent
	opRemoveComponent
)

type opKey struct {
	entity Entity
	id     TypeID
}

// opQueue defers mutations requested while the storage is locked. At flush time creates run
// first, then component operations, then destroys. The last queued operation for an
// (entity, component) pair wins, and destroying an entity cancels its pending component
// operations.
type opQueue struct {
	createOps      []operation
	componentOps   []operation
	destroyOps     []operation
	pendingDestroy map[Entity]struct{}
	pendingMods    map[opKey]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[Entity]struct{}),
		pendingMods:    make(map[opKey]int),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	switch op.typ {
	case opCreate:
		q.createOps = append(q.createOps, op)
	case opDestroy:
		q.destroyOps = append(q.destroyOps, op)
	case opAddComponent, opRemoveComponent:
		q.componentOps = append(q.componentOps, op)
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 &&
		len(q.componentOps) == 0 &&
		len(q.destroyOps) == 0
}

func (q *opQueue) reset() {
	q.createOps = q.createOps[:0]
	q.componentOps = q.componentOps[:0]
	q.destroyOps = q.destroyOps[:0]
	clear(q.pendingDestroy)
	clear(q.pendingMods)
}

func (s *storage) processOperationQueue() error {
	if s.opQueue.empty() {
		return nil
	}
	// The queue is reset even when an operation fails so one bad entry cannot wedge the
	// storage.
	defer s.opQueue.reset()

	for _, op := range s.opQueue.createOps {
		if _, err := s.NewEntities(op.amount); err != nil {
			return eris.Wrap(err, "failed to process queued entity creation")
		}
	}

	for _, op := range s.opQueue.componentOps {
		if op.typ == opNoop {
			continue
		}
		entity := op.entities[0]
		// Skip entities destroyed by a direct call after the operation was queued.
		if !s.pool.isAlive(entity) {
			continue
		}
		if err := op.apply(s); err != nil {
			return eris.Wrapf(err, "failed to apply queued component operation on %v", entity)
		}
	}

	for _, op := range s.opQueue.destroyOps {
		var entities []Entity
		for _, entity := range op.entities {
			if s.pool.isAlive(entity) {
				entities = append(entities, entity)
			}
		}
		if len(entities) > 0 {
			if err := s.Destroy(entities...); err != nil {
				return eris.Wrap(err, "failed to destroy queued entities")
			}
		}
	}

	s.logger.Debug().
		Int("creates", len(s.opQueue.createOps)).
		Int("component_ops", len(s.opQueue.componentOps)).
		Int("destroys", len(s.opQueue.destroyOps)).
		Msg("operation queue flushed")
	return nil
}

func (q *opQueue) EnqueueDestroy(entities []Entity) {
	var newEntities []Entity
	for _, entity := range entities {
		if _, exists := q.pendingDestroy[entity]; exists {
			continue
		}
		newEntities = append(newEntities, entity)
		q.pendingDestroy[entity] = struct{}{}

		for key, idx := range q.pendingMods {
			if key.entity == entity {
				q.componentOps[idx].typ = opNoop
				delete(q.pendingMods, key)
			}
		}
	}

	if len(newEntities) > 0 {
		q.destroyOps = append(q.destroyOps, operation{
			typ:      opDestroy,
			entities: newEntities,
		})
	}
}

func (q *opQueue) EnqueueComponentOp(typ operationType, entity Entity, id TypeID, apply func(*storage) error) {
	if _, isDestroyed := q.pendingDestroy[entity]; isDestroyed {
		return
	}

	key := opKey{entity: entity, id: id}
	if existingIdx, exists := q.pendingMods[key]; exists {
		existingOp := &q.componentOps[existingIdx]
		existingOp.typ = typ
		existingOp.apply = apply
		return
	}

	q.pendingMods[key] = len(q.componentOps)
	q.componentOps = append(q.componentOps, operation{
		typ:      typ,
		entities: []Entity{entity},
		id:       id,
		apply:    apply,
	})
}
