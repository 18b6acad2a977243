package testutils

// -------------------------------------------------------------------------------------------------
// Components
// -------------------------------------------------------------------------------------------------

type Position struct {
	X, Y float64
}

func (Position) Name() string {
	return "position"
}

type Velocity struct {
	X, Y float64
}

func (Velocity) Name() string {
	return "velocity"
}

type Health struct {
	Current, Max int32
}

func (Health) Name() string {
	return "health"
}

// Frozen is a tag component.
type Frozen struct{}

func (Frozen) Name() string {
	return "frozen"
}

// Inventory is not fixed-size and needs the JSON codec.
type Inventory struct {
	Owner string
	Items []string
	Gold  uint64
}

func (Inventory) Name() string {
	return "inventory"
}
