/*
Package stockroom provides sparse-set component storage for Entity-Component-System (ECS) games
and simulations.

Every component type lives in its own container: a sparse table mapping entity indices to
slots in a dense, contiguous slice. Adding, removing and looking up a component is O(1), and
bulk iteration walks packed memory. Views over several component types join their containers,
driving the scan from the smallest one.

Core Concepts:

  - Entity: a 64-bit handle packing an index and a generation. Destroyed indices are
    recycled with a bumped generation, so stale handles are rejected.
  - Component: any type with a Name method. The name is hashed into the TypeID that keys the
    component's container and its serializer.
  - Container: the dense storage of one component type.
  - Access: a typed view joining one to four containers.
  - Registry: TypeID to codec mapping used to persist heterogeneous containers.

Basic Usage:

	type Position struct{ X, Y float64 }

	func (Position) Name() string { return "game.Position" }

	type Velocity struct{ X, Y float64 }

	func (Velocity) Name() string { return "game.Velocity" }

	func init() {
		stockroom.MustRegister(stockroom.BinaryCodec[Position]())
		stockroom.MustRegister(stockroom.BinaryCodec[Velocity]())
	}

	storage := stockroom.Factory.NewStorage()
	e, _ := storage.Create()
	stockroom.AddComponent(storage, e, Position{})
	stockroom.AddComponent(storage, e, Velocity{X: 1})

	view, _ := stockroom.NewAccess2[Position, Velocity](storage)
	view.EachComponents(func(pos *Position, vel *Velocity) {
		pos.X += vel.X
		pos.Y += vel.Y
	})

	var buf bytes.Buffer
	_ = storage.Serialize(&buf)

While a view or cursor iterates, the storage is locked: direct mutations fail with
LockedStorageError, and the Enqueue variants defer them until iteration ends.

Pointers returned by Get and friends alias the dense slices. They stay valid only until the
next add or remove on the same container.
*/
package stockroom
