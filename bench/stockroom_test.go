package bench

import (
	"testing"

	"github.com/TheBitDrifter/stockroom"
)

const (
	nPos    = 9000
	nPosVel = 1000
)

type Position struct {
	X float64
	Y float64
}

func (Position) Name() string { return "bench.Position" }

type Velocity struct {
	X float64
	Y float64
}

func (Velocity) Name() string { return "bench.Velocity" }

func newScene(b *testing.B) stockroom.Storage {
	b.Helper()
	storage := stockroom.Factory.NewStorage(stockroom.WithCapacity(nPos + nPosVel))

	moving, err := storage.NewEntities(nPosVel)
	if err != nil {
		b.Fatal(err)
	}
	for _, e := range moving {
		stockroom.AddComponent(storage, e, Position{})
		stockroom.AddComponent(storage, e, Velocity{X: 1, Y: 1})
	}
	static, err := storage.NewEntities(nPos)
	if err != nil {
		b.Fatal(err)
	}
	for _, e := range static {
		stockroom.AddComponent(storage, e, Position{})
	}
	return storage
}

func BenchmarkIterStockroomEach(b *testing.B) {
	b.StopTimer()
	storage := newScene(b)
	view, err := stockroom.NewAccess2[Position, Velocity](storage)
	if err != nil {
		b.Fatal(err)
	}
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		view.EachComponents(func(pos *Position, vel *Velocity) {
			pos.X += vel.X
			pos.Y += vel.Y
		})
	}
}

func BenchmarkIterStockroomCursor(b *testing.B) {
	b.StopTimer()
	storage := newScene(b)

	velocity := stockroom.FactoryNewComponent[Velocity]()
	position := stockroom.FactoryNewComponent[Position]()

	query := stockroom.Factory.NewQuery()
	query.And(velocity, position)
	cursor := stockroom.Factory.NewCursor(query, storage)

	b.StartTimer()

	for i := 0; i < b.N; i++ {
		for cursor.Next() {
			pos := position.GetFromCursor(cursor)
			vel := velocity.GetFromCursor(cursor)

			pos.X += vel.X
			pos.Y += vel.Y
		}
	}
}

func BenchmarkIterStockroomSingle(b *testing.B) {
	b.StopTimer()
	storage := newScene(b)
	view, err := stockroom.NewAccess1[Position](storage)
	if err != nil {
		b.Fatal(err)
	}
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		raw := view.Raw()
		for j := range raw {
			raw[j].X++
		}
	}
}
