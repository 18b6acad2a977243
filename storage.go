package stockroom

import (
	"io"
	"slices"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/TheBitDrifter/stockroom/archive"
)

var _ Storage = &storage{}

type storage struct {
	registry *Registry
	logger   zerolog.Logger

	// schema hands out the signature bit of each container type.
	schema table.Schema
	pool   entityPool
	// existence is the global entity list; it carries no payload.
	existence  containerBase
	signatures []mask.Mask

	containers []ContainerBase
	byType     map[TypeID]int
	bits       map[TypeID]uint32

	// epoch counts successful loads, so views can tell their containers were replaced.
	epoch uint64

	depth   int
	locks   mask.Mask
	opQueue opQueue
}

func newStorage(opts storageOptions) *storage {
	sto := &storage{
		registry: opts.registry,
		logger:   opts.logger,
		schema:   table.Factory.NewSchema(),
		byType:   make(map[TypeID]int),
		bits:     make(map[TypeID]uint32),
		opQueue:  newOpQueue(),
	}
	if opts.capacity > 0 {
		sto.existence.entities = make([]Entity, 0, opts.capacity)
		sto.signatures = make([]mask.Mask, 0, opts.capacity)
	}
	return sto
}

func (sto *storage) impl() *storage {
	return sto
}

func (sto *storage) Registry() *Registry {
	return sto.registry
}

func (sto *storage) Logger() *zerolog.Logger {
	return &sto.logger
}

func (sto *storage) Create() (Entity, error) {
	if sto.Locked() {
		return NullEntity, LockedStorageError{}
	}
	return sto.create()
}

func (sto *storage) create() (Entity, error) {
	e, err := sto.pool.create()
	if err != nil {
		return NullEntity, err
	}
	sto.existence.addEntity(e)
	index := int(e.Index())
	for len(sto.signatures) <= index {
		sto.signatures = append(sto.signatures, mask.Mask{})
	}
	sto.signatures[index] = mask.Mask{}
	return e, nil
}

func (sto *storage) NewEntities(n int) ([]Entity, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	if n <= 0 {
		return nil, eris.Errorf("entity count must be positive, got %d", n)
	}
	entities := make([]Entity, n)
	for i := range entities {
		e, err := sto.create()
		if err != nil {
			return entities[:i], eris.Wrapf(err, "failed to create entity %d of %d", i+1, n)
		}
		entities[i] = e
	}
	return entities, nil
}

func (sto *storage) EnqueueNewEntities(n int) error {
	if !sto.Locked() {
		_, err := sto.NewEntities(n)
		if err != nil {
			return eris.Wrap(err, "failed to create entities directly")
		}
		return nil
	}
	sto.opQueue.enqueueOp(operation{
		typ:    opCreate,
		amount: n,
	})
	return nil
}

// Destroy removes the entities from every container and recycles their indices. Either all
// entities are destroyed or, if any is not alive, none is.
func (sto *storage) Destroy(entities ...Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	seen := make(map[Entity]struct{}, len(entities))
	for _, e := range entities {
		if _, dup := seen[e]; dup || !sto.pool.isAlive(e) {
			return EntityNotFoundError{Entity: e}
		}
		seen[e] = struct{}{}
	}
	for _, e := range entities {
		sig := sto.signatures[e.Index()]
		for _, c := range sto.containers {
			bit := sto.bits[c.TypeID()]
			if !sig.ContainsAll(bitMask(bit)) {
				continue
			}
			if err := c.remove(e); err != nil {
				return eris.Wrapf(err, "signature of %v out of sync with container %s", e, c.Name())
			}
		}
		sto.existence.removeRow(e, sto.existence.row(e))
		sto.pool.destroy(e)
		sto.signatures[e.Index()] = mask.Mask{}
	}
	return nil
}

func (sto *storage) EnqueueDestroy(entities ...Entity) error {
	if !sto.Locked() {
		return sto.Destroy(entities...)
	}
	sto.opQueue.EnqueueDestroy(entities)
	return nil
}

func (sto *storage) Alive(e Entity) bool {
	return sto.pool.isAlive(e)
}

// Entities returns a copy of the existence list.
func (sto *storage) Entities() []Entity {
	return slices.Clone(sto.existence.entities)
}

func (sto *storage) Len() int {
	return sto.existence.size()
}

// HasAll reports whether e has every listed component. It is false for dead entities and for
// types that have no container yet.
func (sto *storage) HasAll(e Entity, ids ...TypeID) bool {
	if !sto.pool.isAlive(e) {
		return false
	}
	var want mask.Mask
	for _, id := range ids {
		bit, ok := sto.bits[id]
		if !ok {
			return false
		}
		want.Mark(bit)
	}
	return sto.signatures[e.Index()].ContainsAll(want)
}

func (sto *storage) Signature(e Entity) (mask.Mask, bool) {
	if !sto.pool.isAlive(e) {
		return mask.Mask{}, false
	}
	return sto.signatures[e.Index()], true
}

func (sto *storage) Container(id TypeID) (ContainerBase, bool) {
	idx, ok := sto.byType[id]
	if !ok {
		return nil, false
	}
	return sto.containers[idx], true
}

// Containers returns the containers in creation order.
func (sto *storage) Containers() []ContainerBase {
	return slices.Clone(sto.containers)
}

func (sto *storage) RowIndexFor(id TypeID) (uint32, bool) {
	bit, ok := sto.bits[id]
	return bit, ok
}

// attach takes ownership of a container and assigns its signature bit.
func (sto *storage) attach(c ContainerBase) (uint32, error) {
	elem := c.elementType()
	sto.schema.Register(elem)
	bit := sto.schema.RowIndexFor(elem)
	if uint64(bit) >= uint64(mask.MaxBits) {
		return 0, SignatureOverflowError{Name: c.Name(), Bit: bit}
	}

	sto.byType[c.TypeID()] = len(sto.containers)
	sto.containers = append(sto.containers, c)
	sto.bits[c.TypeID()] = bit

	for _, e := range c.Entities() {
		sto.signatures[e.Index()].Mark(bit)
	}

	sto.logger.Debug().
		Str("component_name", c.Name()).
		Str("type_id", c.TypeID().String()).
		Uint32("bit", bit).
		Int("size", c.Size()).
		Msg("container attached")
	return bit, nil
}

func (sto *storage) mark(e Entity, id TypeID) {
	sto.signatures[e.Index()].Mark(sto.bits[id])
}

func (sto *storage) unmark(e Entity, id TypeID) {
	sto.signatures[e.Index()].Unmark(sto.bits[id])
}

func bitMask(bit uint32) mask.Mask {
	var m mask.Mask
	m.Mark(bit)
	return m
}

// Serialize writes the existence list followed by every container record, in creation order.
func (sto *storage) Serialize(w io.Writer) error {
	ar := archive.NewWriter(w)
	if err := sto.existence.writeEntities(ar); err != nil {
		return eris.Wrap(err, "failed to write entity list")
	}
	if err := ar.WriteUint64(uint64(len(sto.containers))); err != nil {
		return eris.Wrap(err, "failed to write container count")
	}
	for _, c := range sto.containers {
		if err := ar.WriteUint64(uint64(c.TypeID())); err != nil {
			return eris.Wrapf(err, "failed to write type id of %s", c.Name())
		}
		if err := sto.registry.serialize(ar, c); err != nil {
			return eris.Wrapf(err, "failed to serialize container %s", c.Name())
		}
	}
	sto.logger.Info().
		Int("entities", sto.Len()).
		Int("containers", len(sto.containers)).
		Int64("bytes", ar.Written()).
		Msg("storage serialized")
	return nil
}

// Deserialize replaces the storage contents with a serialized image. The image is loaded into
// a fresh storage first; on any error the current contents are left untouched. Access views
// built before a successful Deserialize resolve the new containers on their next use.
func (sto *storage) Deserialize(r io.Reader) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	fresh := newStorage(storageOptions{registry: sto.registry, logger: sto.logger})
	ar := archive.NewReader(r)

	if err := fresh.existence.readEntities(ar); err != nil {
		return eris.Wrap(err, "failed to read entity list")
	}
	fresh.pool.rebuild(fresh.existence.entities)
	fresh.signatures = make([]mask.Mask, len(fresh.pool.generations))

	count, err := ar.ReadUint64()
	if err != nil {
		return eris.Wrap(err, "failed to read container count")
	}
	for i := uint64(0); i < count; i++ {
		raw, err := ar.ReadUint64()
		if err != nil {
			return eris.Wrapf(err, "failed to read type id of container %d", i)
		}
		id := TypeID(raw)
		if _, dup := fresh.byType[id]; dup {
			return archive.Corruptf(ar.Offset(), "duplicate container record for %v", id)
		}
		c, err := sto.registry.deserialize(id, ar)
		if err != nil {
			return eris.Wrapf(err, "failed to deserialize container %d (%v)", i, id)
		}
		for _, e := range c.Entities() {
			if !fresh.pool.isAlive(e) {
				return archive.Corruptf(ar.Offset(), "container %s holds %v missing from the entity list", c.Name(), e)
			}
		}
		if _, err := fresh.attach(c); err != nil {
			return err
		}
	}

	sto.adopt(fresh)
	sto.logger.Info().
		Int("entities", sto.Len()).
		Int("containers", len(sto.containers)).
		Int64("bytes", ar.Offset()).
		Msg("storage deserialized")
	return nil
}

// adopt swaps in the contents of a freshly loaded storage, keeping lock state and queue.
func (sto *storage) adopt(fresh *storage) {
	sto.schema = fresh.schema
	sto.pool = fresh.pool
	sto.existence = fresh.existence
	sto.signatures = fresh.signatures
	sto.containers = fresh.containers
	sto.byType = fresh.byType
	sto.bits = fresh.bits
	sto.epoch++
}

// refreshed runs a view's refresh and logs its failure. Iterations have no error return.
func (sto *storage) refreshed(refresh func() error) bool {
	if err := refresh(); err != nil {
		sto.logger.Error().Err(err).Msg("failed to resolve view containers")
		return false
	}
	return true
}

func (sto *storage) Locked() bool {
	return sto.depth > 0 || sto.locks != (mask.Mask{})
}

// Lock refuses direct mutations until the matching Unlock. Locks nest.
func (sto *storage) Lock() {
	sto.depth++
}

// Unlock releases one Lock. Once no lock is held the deferred operation queue is flushed.
func (sto *storage) Unlock() error {
	if sto.depth > 0 {
		sto.depth--
	}
	return sto.flushIfUnlocked()
}

// AddLock holds a named lock; the storage stays locked while any named lock is held.
func (sto *storage) AddLock(bit uint32) {
	sto.locks.Mark(bit)
}

func (sto *storage) RemoveLock(bit uint32) error {
	sto.locks.Unmark(bit)
	return sto.flushIfUnlocked()
}

func (sto *storage) flushIfUnlocked() error {
	if sto.Locked() {
		return nil
	}
	return sto.processOperationQueue()
}

// endIteration releases the lock taken by a view or cursor. Queue failures cannot reach the
// caller from inside a range loop, so they are logged.
func (sto *storage) endIteration() {
	if err := sto.Unlock(); err != nil {
		sto.logger.Error().Err(err).Msg("failed to apply deferred operations")
	}
}
