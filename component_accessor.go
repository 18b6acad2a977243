package stockroom

// ID returns the TypeID of the component, so handles can be passed straight to queries.
func (c AccessibleComponent[T]) ID() TypeID {
	return c.id
}

func (c AccessibleComponent[T]) Name() string {
	return c.name
}

// GetFromCursor retrieves the component of the entity at the cursor position. It returns nil
// if the entity lacks it.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	v, _ := TryGetComponent[T](cursor.storage, cursor.current)
	return v
}

// GetFromCursorSafe retrieves the component at the cursor position and reports whether it was
// found.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	v, ok := TryGetComponent[T](cursor.storage, cursor.current)
	return ok, v
}

// CheckCursor determines if the entity at the cursor position has the component
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return HasComponent[T](cursor.storage, cursor.current)
}

func (c AccessibleComponent[T]) GetFromEntity(sto Storage, entity Entity) *T {
	v, _ := TryGetComponent[T](sto, entity)
	return v
}
