package stockroom

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Component represents a data attribute/state that can be attached to entities.
// Name must be a deliberately chosen constant: it is hashed into the TypeID that keys the
// component's container and its registered codec, and it is what save files refer to.
type Component interface {
	Name() string
}

// TypeID identifies a component type across builds and platforms.
type TypeID uint64

func (id TypeID) String() string {
	return fmt.Sprintf("0x%016x", uint64(id))
}

// TypeIDFor hashes a component name into its TypeID.
func TypeIDFor(name string) TypeID {
	return TypeID(xxhash.Sum64String(name))
}

// TypeIDOf returns the TypeID of component type T.
func TypeIDOf[T Component]() TypeID {
	var zero T
	return TypeIDFor(zero.Name())
}

// isTagType reports whether T occupies no memory, in which case its container keeps a single
// shared instance instead of a slice.
func isTagType[T any]() bool {
	return reflect.TypeFor[T]().Size() == 0
}
