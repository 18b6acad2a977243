package main

import (
	"github.com/rotisserie/eris"

	"github.com/TheBitDrifter/stockroom"
)

type Position struct {
	X, Y float64
}

func (Position) Name() string { return "bench.Position" }

type Velocity struct {
	X, Y float64
}

func (Velocity) Name() string { return "bench.Velocity" }

type Health struct {
	Current, Max int32
}

func (Health) Name() string { return "bench.Health" }

// Frozen entities are skipped by the movement pass.
type Frozen struct{}

func (Frozen) Name() string { return "bench.Frozen" }

func init() {
	stockroom.MustRegister(stockroom.BinaryCodec[Position]())
	stockroom.MustRegister(stockroom.BinaryCodec[Velocity]())
	stockroom.MustRegister(stockroom.BinaryCodec[Health]())
	stockroom.MustRegister(stockroom.BinaryCodec[Frozen]())
}

// buildScene spawns n entities. Every entity gets a Position, every second one a Velocity,
// every third one Health and every tenth one is Frozen.
func buildScene(sto stockroom.Storage, n int) error {
	entities, err := sto.NewEntities(n)
	if err != nil {
		return err
	}
	for i, e := range entities {
		if _, err := stockroom.AddComponent(sto, e, Position{X: float64(i)}); err != nil {
			return err
		}
		if i%2 == 0 {
			if _, err := stockroom.AddComponent(sto, e, Velocity{X: 1, Y: 0.5}); err != nil {
				return err
			}
		}
		if i%3 == 0 {
			if _, err := stockroom.AddComponent(sto, e, Health{Current: 100, Max: 100}); err != nil {
				return err
			}
		}
		if i%10 == 0 {
			if _, err := stockroom.AddComponent(sto, e, Frozen{}); err != nil {
				return err
			}
		}
	}
	return nil
}

// systems are the per-frame passes run over the scene.
type systems struct {
	sto      stockroom.Storage
	movers   *stockroom.Access2[Position, Velocity]
	living   *stockroom.Access1[Health]
	frozen   *stockroom.Access1[Frozen]
	velocity stockroom.AccessibleComponent[Velocity]
}

func newSystems(sto stockroom.Storage) (*systems, error) {
	movers, err := stockroom.NewAccess2[Position, Velocity](sto)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build movement view")
	}
	living, err := stockroom.NewAccess1[Health](sto)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build health view")
	}
	frozen, err := stockroom.NewAccess1[Frozen](sto)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build frozen view")
	}
	return &systems{
		sto:      sto,
		movers:   movers,
		living:   living,
		frozen:   frozen,
		velocity: stockroom.FactoryNewComponent[Velocity](),
	}, nil
}

// frame runs one update. Entities whose health runs out are destroyed once the pass ends.
func (s *systems) frame() (died int, err error) {
	s.movers.Each(func(e stockroom.Entity, pos *Position, vel *Velocity) {
		if s.frozen.Has(e) {
			return
		}
		pos.X += vel.X
		pos.Y += vel.Y
	})

	s.living.Each(func(e stockroom.Entity, h *Health) {
		if h.Current <= 0 {
			return
		}
		h.Current--
		if h.Current == 0 {
			died++
			err = s.sto.EnqueueDestroy(e)
		}
	})
	return died, err
}

// thaw unfreezes every frozen entity that stopped moving, through a query cursor.
func (s *systems) thaw() (int, error) {
	query := stockroom.Factory.NewQuery()
	query.And(stockroom.TypeIDOf[Frozen](), query.Not(s.velocity))
	cursor := stockroom.Factory.NewCursor(query, s.sto)

	n := 0
	for cursor.Next() {
		if err := stockroom.EnqueueRemoveComponent[Frozen](s.sto, cursor.Entity()); err != nil {
			cursor.Reset()
			return n, err
		}
		n++
	}
	return n, nil
}
