package stockroom

import (
	"iter"

	iter_util "github.com/TheBitDrifter/util/iter"
)

// join yields the entities present in every container. It walks the dense entities of the
// smallest container, picked when iteration starts, and checks the others. The storage is
// locked for the duration of the walk.
func join(s *storage, containers ...ContainerBase) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		driver := smallest(containers)

		s.Lock()
		defer s.endIteration()

	entities:
		for _, e := range driver.Entities() {
			for _, c := range containers {
				if c != driver && !c.base().has(e) {
					continue entities
				}
			}
			if !yield(e) {
				return
			}
		}
	}
}

func smallest(containers []ContainerBase) ContainerBase {
	driver := containers[0]
	for _, c := range containers[1:] {
		if c.Size() < driver.Size() {
			driver = c
		}
	}
	return driver
}

func countJoin(containers ...ContainerBase) int {
	driver := smallest(containers)
	n := 0
entities:
	for _, e := range driver.Entities() {
		for _, c := range containers {
			if c != driver && !c.base().has(e) {
				continue entities
			}
		}
		n++
	}
	return n
}

// Access1 is a view over the entities owning an A. Views cache the storage's containers and
// resolve them again when the storage has been deserialized since.
type Access1[A Component] struct {
	sto   *storage
	epoch uint64
	a     *Container[A]
}

func NewAccess1[A Component](sto Storage) (*Access1[A], error) {
	v := &Access1[A]{sto: sto.impl()}
	if err := v.resolve(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Access1[A]) resolve() error {
	a, err := ContainerOf[A](v.sto)
	if err != nil {
		return err
	}
	v.a, v.epoch = a, v.sto.epoch
	return nil
}

// refresh re-resolves the containers of a view built before the last Deserialize.
func (v *Access1[A]) refresh() error {
	if v.epoch == v.sto.epoch {
		return nil
	}
	return v.resolve()
}

// All yields every entity owning an A, in dense order.
func (v *Access1[A]) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		if !v.sto.refreshed(v.refresh) {
			return
		}
		v.sto.Lock()
		defer v.sto.endIteration()
		for _, e := range v.a.entities {
			if !yield(e) {
				return
			}
		}
	}
}

func (v *Access1[A]) Each(fn func(Entity, *A)) {
	if !v.sto.refreshed(v.refresh) {
		return
	}
	v.sto.Lock()
	defer v.sto.endIteration()
	if v.a.tag {
		for _, e := range v.a.entities {
			fn(e, &v.a.shared)
		}
		return
	}
	for i, e := range v.a.entities {
		fn(e, &v.a.components[i])
	}
}

func (v *Access1[A]) EachComponents(fn func(*A)) {
	v.Each(func(_ Entity, a *A) {
		fn(a)
	})
}

func (v *Access1[A]) Get(e Entity) (*A, error) {
	if err := v.refresh(); err != nil {
		return nil, err
	}
	return v.a.Get(e)
}

func (v *Access1[A]) Has(e Entity) bool {
	return v.refresh() == nil && v.a.Has(e)
}

// Entities collects the matching entities into a new slice.
func (v *Access1[A]) Entities() []Entity {
	return iter_util.Collect(v.All())
}

func (v *Access1[A]) Count() int {
	if v.refresh() != nil {
		return 0
	}
	return v.a.Size()
}

// Raw returns the dense component slice. It is nil for tag components.
func (v *Access1[A]) Raw() []A {
	if v.refresh() != nil {
		return nil
	}
	return v.a.Raw()
}

func (v *Access1[A]) Container() *Container[A] {
	if v.refresh() != nil {
		return nil
	}
	return v.a
}

// Access2 is a view over the entities owning both an A and a B.
type Access2[A, B Component] struct {
	sto   *storage
	epoch uint64
	a     *Container[A]
	b     *Container[B]
}

func NewAccess2[A, B Component](sto Storage) (*Access2[A, B], error) {
	v := &Access2[A, B]{sto: sto.impl()}
	if err := v.resolve(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Access2[A, B]) resolve() error {
	a, err := ContainerOf[A](v.sto)
	if err != nil {
		return err
	}
	b, err := ContainerOf[B](v.sto)
	if err != nil {
		return err
	}
	v.a, v.b, v.epoch = a, b, v.sto.epoch
	return nil
}

func (v *Access2[A, B]) refresh() error {
	if v.epoch == v.sto.epoch {
		return nil
	}
	return v.resolve()
}

func (v *Access2[A, B]) All() iter.Seq[Entity] {
	if !v.sto.refreshed(v.refresh) {
		return func(func(Entity) bool) {}
	}
	return join(v.sto, v.a, v.b)
}

func (v *Access2[A, B]) Each(fn func(Entity, *A, *B)) {
	for e := range v.All() {
		a, _ := v.a.TryGet(e)
		b, _ := v.b.TryGet(e)
		fn(e, a, b)
	}
}

func (v *Access2[A, B]) EachComponents(fn func(*A, *B)) {
	v.Each(func(_ Entity, a *A, b *B) {
		fn(a, b)
	})
}

func (v *Access2[A, B]) Get(e Entity) (*A, *B, error) {
	if err := v.refresh(); err != nil {
		return nil, nil, err
	}
	a, err := v.a.Get(e)
	if err != nil {
		return nil, nil, err
	}
	b, err := v.b.Get(e)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (v *Access2[A, B]) Has(e Entity) bool {
	return v.refresh() == nil && v.a.Has(e) && v.b.Has(e)
}

func (v *Access2[A, B]) Entities() []Entity {
	return iter_util.Collect(v.All())
}

func (v *Access2[A, B]) Count() int {
	if v.refresh() != nil {
		return 0
	}
	return countJoin(v.a, v.b)
}

type Access3[A, B, C Component] struct {
	sto   *storage
	epoch uint64
	a     *Container[A]
	b     *Container[B]
	c     *Container[C]
}

func NewAccess3[A, B, C Component](sto Storage) (*Access3[A, B, C], error) {
	v := &Access3[A, B, C]{sto: sto.impl()}
	if err := v.resolve(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Access3[A, B, C]) resolve() error {
	a, err := ContainerOf[A](v.sto)
	if err != nil {
		return err
	}
	b, err := ContainerOf[B](v.sto)
	if err != nil {
		return err
	}
	c, err := ContainerOf[C](v.sto)
	if err != nil {
		return err
	}
	v.a, v.b, v.c, v.epoch = a, b, c, v.sto.epoch
	return nil
}

func (v *Access3[A, B, C]) refresh() error {
	if v.epoch == v.sto.epoch {
		return nil
	}
	return v.resolve()
}

func (v *Access3[A, B, C]) All() iter.Seq[Entity] {
	if !v.sto.refreshed(v.refresh) {
		return func(func(Entity) bool) {}
	}
	return join(v.sto, v.a, v.b, v.c)
}

func (v *Access3[A, B, C]) Each(fn func(Entity, *A, *B, *C)) {
	for e := range v.All() {
		a, _ := v.a.TryGet(e)
		b, _ := v.b.TryGet(e)
		c, _ := v.c.TryGet(e)
		fn(e, a, b, c)
	}
}

func (v *Access3[A, B, C]) EachComponents(fn func(*A, *B, *C)) {
	v.Each(func(_ Entity, a *A, b *B, c *C) {
		fn(a, b, c)
	})
}

func (v *Access3[A, B, C]) Get(e Entity) (*A, *B, *C, error) {
	if err := v.refresh(); err != nil {
		return nil, nil, nil, err
	}
	a, err := v.a.Get(e)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := v.b.Get(e)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := v.c.Get(e)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, b, c, nil
}

func (v *Access3[A, B, C]) Has(e Entity) bool {
	return v.refresh() == nil && v.a.Has(e) && v.b.Has(e) && v.c.Has(e)
}

func (v *Access3[A, B, C]) Entities() []Entity {
	return iter_util.Collect(v.All())
}

func (v *Access3[A, B, C]) Count() int {
	if v.refresh() != nil {
		return 0
	}
	return countJoin(v.a, v.b, v.c)
}

type Access4[A, B, C, D Component] struct {
	sto   *storage
	epoch uint64
	a     *Container[A]
	b     *Container[B]
	c     *Container[C]
	d     *Container[D]
}

func NewAccess4[A, B, C, D Component](sto Storage) (*Access4[A, B, C, D], error) {
	v := &Access4[A, B, C, D]{sto: sto.impl()}
	if err := v.resolve(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Access4[A, B, C, D]) resolve() error {
	a, err := ContainerOf[A](v.sto)
	if err != nil {
		return err
	}
	b, err := ContainerOf[B](v.sto)
	if err != nil {
		return err
	}
	c, err := ContainerOf[C](v.sto)
	if err != nil {
		return err
	}
	d, err := ContainerOf[D](v.sto)
	if err != nil {
		return err
	}
	v.a, v.b, v.c, v.d, v.epoch = a, b, c, d, v.sto.epoch
	return nil
}

func (v *Access4[A, B, C, D]) refresh() error {
	if v.epoch == v.sto.epoch {
		return nil
	}
	return v.resolve()
}

func (v *Access4[A, B, C, D]) All() iter.Seq[Entity] {
	if !v.sto.refreshed(v.refresh) {
		return func(func(Entity) bool) {}
	}
	return join(v.sto, v.a, v.b, v.c, v.d)
}

func (v *Access4[A, B, C, D]) Each(fn func(Entity, *A, *B, *C, *D)) {
	for e := range v.All() {
		a, _ := v.a.TryGet(e)
		b, _ := v.b.TryGet(e)
		c, _ := v.c.TryGet(e)
		d, _ := v.d.TryGet(e)
		fn(e, a, b, c, d)
	}
}

func (v *Access4[A, B, C, D]) EachComponents(fn func(*A, *B, *C, *D)) {
	v.Each(func(_ Entity, a *A, b *B, c *C, d *D) {
		fn(a, b, c, d)
	})
}

func (v *Access4[A, B, C, D]) Get(e Entity) (*A, *B, *C, *D, error) {
	if err := v.refresh(); err != nil {
		return nil, nil, nil, nil, err
	}
	a, err := v.a.Get(e)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	b, err := v.b.Get(e)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	c, err := v.c.Get(e)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	d, err := v.d.Get(e)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return a, b, c, d, nil
}

func (v *Access4[A, B, C, D]) Has(e Entity) bool {
	return v.refresh() == nil && v.a.Has(e) && v.b.Has(e) && v.c.Has(e) && v.d.Has(e)
}

func (v *Access4[A, B, C, D]) Entities() []Entity {
	return iter_util.Collect(v.All())
}

func (v *Access4[A, B, C, D]) Count() int {
	if v.refresh() != nil {
		return 0
	}
	return countJoin(v.a, v.b, v.c, v.d)
}
