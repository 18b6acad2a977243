package stockroom

type factory struct{}

var Factory factory

func (f factory) NewStorage(opts ...StorageOption) Storage {
	return newStorage(newStorageOptions(opts...))
}

func (f factory) NewQuery() Query {
	return newQuery()
}

func (f factory) NewCursor(query QueryNode, storage Storage) *Cursor {
	return newCursor(query, storage)
}

func FactoryNewComponent[T Component]() AccessibleComponent[T] {
	var zero T
	return AccessibleComponent[T]{
		id:   TypeIDOf[T](),
		name: zero.Name(),
	}
}

func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
