package stockroom

import (
	"reflect"
)

// ContainerOf returns the container for T, creating and attaching it on first use.
func ContainerOf[T Component](sto Storage) (*Container[T], error) {
	s := sto.impl()
	c, ok, err := lookupContainer[T](s)
	if err != nil || ok {
		return c, err
	}
	c = newContainer[T]()
	if _, err := s.attach(c); err != nil {
		return nil, err
	}
	return c, nil
}

// lookupContainer finds T's container without creating it.
func lookupContainer[T Component](s *storage) (*Container[T], bool, error) {
	idx, ok := s.byType[TypeIDOf[T]()]
	if !ok {
		return nil, false, nil
	}
	existing := s.containers[idx]
	c, ok := existing.(*Container[T])
	if !ok {
		return nil, false, ComponentTypeMismatchError{
			ID:       existing.TypeID(),
			Name:     existing.Name(),
			Expected: reflect.TypeFor[*Container[T]]().String(),
			Got:      reflect.TypeOf(existing).String(),
		}
	}
	return c, true, nil
}

// AddComponent attaches v to e and returns a pointer to the stored copy.
func AddComponent[T Component](sto Storage, e Entity, v T) (*T, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	return addComponent(sto.impl(), e, v)
}

func addComponent[T Component](s *storage, e Entity, v T) (*T, error) {
	if !s.pool.isAlive(e) {
		return nil, EntityNotFoundError{Entity: e}
	}
	c, err := ContainerOf[T](s)
	if err != nil {
		return nil, err
	}
	ptr, err := c.add(e, v)
	if err != nil {
		return nil, err
	}
	s.mark(e, c.id)
	return ptr, nil
}

// EnqueueAddComponent adds v to e now, or once the storage unlocks if it is locked.
func EnqueueAddComponent[T Component](sto Storage, e Entity, v T) error {
	if !sto.Locked() {
		_, err := AddComponent(sto, e, v)
		return err
	}
	s := sto.impl()
	s.opQueue.EnqueueComponentOp(opAddComponent, e, TypeIDOf[T](), func(s *storage) error {
		_, err := addComponent(s, e, v)
		return err
	})
	return nil
}

func RemoveComponent[T Component](sto Storage, e Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	return removeComponent[T](sto.impl(), e)
}

func removeComponent[T Component](s *storage, e Entity) error {
	if !s.pool.isAlive(e) {
		return EntityNotFoundError{Entity: e}
	}
	c, ok, err := lookupContainer[T](s)
	if err != nil {
		return err
	}
	if !ok {
		var zero T
		return ComponentNotFoundError{Entity: e, Component: zero.Name()}
	}
	if err := c.remove(e); err != nil {
		return err
	}
	s.unmark(e, c.id)
	return nil
}

// EnqueueRemoveComponent removes T from e now, or once the storage unlocks if it is locked.
func EnqueueRemoveComponent[T Component](sto Storage, e Entity) error {
	if !sto.Locked() {
		return RemoveComponent[T](sto, e)
	}
	s := sto.impl()
	s.opQueue.EnqueueComponentOp(opRemoveComponent, e, TypeIDOf[T](), func(s *storage) error {
		return removeComponent[T](s, e)
	})
	return nil
}

// GetComponent returns a pointer to e's T. The pointer is invalidated by the next add or
// remove of a T on any entity.
func GetComponent[T Component](sto Storage, e Entity) (*T, error) {
	s := sto.impl()
	if !s.pool.isAlive(e) {
		return nil, EntityNotFoundError{Entity: e}
	}
	c, ok, err := lookupContainer[T](s)
	if err != nil {
		return nil, err
	}
	if !ok {
		var zero T
		return nil, ComponentNotFoundError{Entity: e, Component: zero.Name()}
	}
	return c.Get(e)
}

func TryGetComponent[T Component](sto Storage, e Entity) (*T, bool) {
	c, ok, err := lookupContainer[T](sto.impl())
	if err != nil || !ok {
		return nil, false
	}
	return c.TryGet(e)
}

func HasComponent[T Component](sto Storage, e Entity) bool {
	c, ok, err := lookupContainer[T](sto.impl())
	if err != nil || !ok {
		return false
	}
	return c.Has(e)
}
