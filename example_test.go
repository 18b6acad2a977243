package stockroom_test

import (
	"bytes"
	"fmt"

	"github.com/TheBitDrifter/stockroom"
)

type examplePosition struct{ X, Y float64 }

func (examplePosition) Name() string { return "example.position" }

type exampleVelocity struct{ X, Y float64 }

func (exampleVelocity) Name() string { return "example.velocity" }

type exampleSleeping struct{}

func (exampleSleeping) Name() string { return "example.sleeping" }

func init() {
	stockroom.MustRegister(stockroom.BinaryCodec[examplePosition]())
	stockroom.MustRegister(stockroom.BinaryCodec[exampleVelocity]())
	stockroom.MustRegister(stockroom.BinaryCodec[exampleSleeping]())
}

func Example_basic() {
	storage := stockroom.Factory.NewStorage()

	entities, _ := storage.NewEntities(3)
	for i, e := range entities {
		stockroom.AddComponent(storage, e, examplePosition{X: float64(i)})
	}
	stockroom.AddComponent(storage, entities[0], exampleVelocity{X: 1, Y: 2})
	stockroom.AddComponent(storage, entities[2], exampleVelocity{X: -1})
	stockroom.AddComponent(storage, entities[1], exampleSleeping{})

	movers, _ := stockroom.NewAccess2[examplePosition, exampleVelocity](storage)
	movers.Each(func(e stockroom.Entity, pos *examplePosition, vel *exampleVelocity) {
		pos.X += vel.X
		pos.Y += vel.Y
		fmt.Printf("%v moved to (%g, %g)\n", e, pos.X, pos.Y)
	})
	fmt.Println("movers:", movers.Count())

	storage.Destroy(entities[1])
	recycled, _ := storage.Create()
	fmt.Println("recycled:", recycled, "stale alive:", storage.Alive(entities[1]))

	var buf bytes.Buffer
	if err := storage.Serialize(&buf); err != nil {
		fmt.Println(err)
		return
	}
	loaded := stockroom.Factory.NewStorage()
	if err := loaded.Deserialize(&buf); err != nil {
		fmt.Println(err)
		return
	}
	pos, _ := stockroom.GetComponent[examplePosition](loaded, entities[2])
	fmt.Println("loaded:", loaded.Len(), "entities, last position", *pos)

	// Output:
	// Entity(0:0) moved to (1, 2)
	// Entity(2:0) moved to (1, 0)
	// movers: 2
	// recycled: Entity(1:1) stale alive: false
	// loaded: 3 entities, last position {1 0}
}

func Example_deferred() {
	storage := stockroom.Factory.NewStorage()
	entities, _ := storage.NewEntities(4)
	for _, e := range entities {
		stockroom.AddComponent(storage, e, examplePosition{})
	}

	view, _ := stockroom.NewAccess1[examplePosition](storage)
	for e := range view.All() {
		if err := storage.Destroy(e); err != nil {
			fmt.Println("direct:", err)
		}
		storage.EnqueueDestroy(e)
		break
	}
	fmt.Println("entities after iteration:", storage.Len())

	// Output:
	// direct: storage is currently locked
	// entities after iteration: 3
}
