package stockroom

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/rotisserie/eris"
)

// ErrComponentSchemaMismatch is wrapped when a registered component no longer matches the schema
// stored alongside a save.
var ErrComponentSchemaMismatch = eris.New("component schema mismatch")

type LockedStorageError struct{}

func (e LockedStorageError) Error() string {
	return "storage is currently locked"
}

// EntityNotFoundError is returned for entities that were never created, were destroyed, or
// carry a stale generation.
type EntityNotFoundError struct {
	Entity Entity
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity does not exist: %v", e.Entity)
}

type ComponentExistsError struct {
	Entity    Entity
	Component string
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity %v: %s", e.Entity, e.Component)
}

type ComponentNotFoundError struct {
	Entity    Entity
	Component string
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity %v: %s", e.Entity, e.Component)
}

// UnknownComponentTypeError is returned when a save refers to a type id the registry lacks.
type UnknownComponentTypeError struct {
	ID TypeID
}

func (e UnknownComponentTypeError) Error() string {
	return fmt.Sprintf("component type %v is not registered", e.ID)
}

// ComponentTypeMismatchError is returned when a container registered under a TypeID holds a
// different Go type than the one requested, which means two component types share a name.
type ComponentTypeMismatchError struct {
	ID       TypeID
	Name     string
	Expected string
	Got      string
}

func (e ComponentTypeMismatchError) Error() string {
	return fmt.Sprintf("component %q (%v) is stored as %s, requested as %s", e.Name, e.ID, e.Got, e.Expected)
}

// SignatureOverflowError is returned when a component type's signature bit does not fit in
// an entity signature.
type SignatureOverflowError struct {
	Name string
	Bit  uint32
}

func (e SignatureOverflowError) Error() string {
	return fmt.Sprintf("component %q needs signature bit %d, signatures hold %d", e.Name, e.Bit, mask.MaxBits)
}
