package stockroom

import (
	"io"
	"iter"

	"github.com/TheBitDrifter/mask"
	"github.com/rs/zerolog"
)

// Storage is the façade over entities and their component containers.
// Component operations are generic package functions (AddComponent, GetComponent, ...)
// taking a Storage.
type Storage interface {
	Create() (Entity, error)
	NewEntities(n int) ([]Entity, error)
	EnqueueNewEntities(n int) error
	Destroy(...Entity) error
	EnqueueDestroy(...Entity) error
	Alive(Entity) bool
	Entities() []Entity
	Len() int

	HasAll(Entity, ...TypeID) bool
	Signature(Entity) (mask.Mask, bool)
	Container(TypeID) (ContainerBase, bool)
	Containers() []ContainerBase
	RowIndexFor(TypeID) (uint32, bool)

	Serialize(io.Writer) error
	Deserialize(io.Reader) error

	Registry() *Registry
	Logger() *zerolog.Logger

	Locked() bool
	Lock()
	Unlock() error
	AddLock(bit uint32)
	RemoveLock(bit uint32) error

	impl() *storage
}

type Query interface {
	QueryNode
	And(items ...interface{}) QueryNode
	Or(items ...interface{}) QueryNode
	Not(items ...interface{}) QueryNode
}

type QueryNode interface {
	Evaluate(signature mask.Mask, storage Storage) bool
}

type iCursor interface {
	Entities() iter.Seq2[int, Entity]
	Next() bool
}

type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Len() int
}

// Cursor walks the entities matching a query. The storage stays locked from the first call to
// Next until Next returns false or Reset is called.
type Cursor struct {
	// The query to filter entities
	query QueryNode

	// The storage to iterate over
	storage Storage

	// Current iteration state
	current  Entity
	position int

	// Initialization state
	initialized bool
	matched     []Entity
}

type AccessibleComponent[T Component] struct {
	id   TypeID
	name string
}

type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}
