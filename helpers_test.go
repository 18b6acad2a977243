package stockroom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheBitDrifter/stockroom/internal/testutils"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, Register(reg, BinaryCodec[testutils.Position]()))
	require.NoError(t, Register(reg, BinaryCodec[testutils.Velocity]()))
	require.NoError(t, Register(reg, BinaryCodec[testutils.Health]()))
	require.NoError(t, Register(reg, BinaryCodec[testutils.Frozen]()))
	require.NoError(t, Register(reg, JSONCodec[testutils.Inventory]()))
	return reg
}

func newTestStorage(t *testing.T, opts ...StorageOption) Storage {
	t.Helper()
	opts = append([]StorageOption{WithRegistry(newTestRegistry(t))}, opts...)
	return Factory.NewStorage(opts...)
}

// requireSparseInvariants checks that the sparse and dense sides of a set agree.
func requireSparseInvariants(t *testing.T, base *containerBase) {
	t.Helper()
	present := 0
	for _, slot := range base.indirect {
		if slot != npos {
			present++
		}
	}
	require.Equal(t, len(base.entities), present, "sparse entries must match dense entities")
	for j, e := range base.entities {
		require.Equal(t, uint64(j), base.indirect[e.Index()], "indirect[%v] must point at its dense slot", e)
		require.True(t, base.has(e))
	}
}

func requireContainerInvariants(t *testing.T, c ContainerBase) {
	t.Helper()
	requireSparseInvariants(t, c.base())
	for _, e := range c.Entities() {
		require.True(t, c.Has(e))
	}
}

func requireComponentsAligned[T Component](t *testing.T, c *Container[T]) {
	t.Helper()
	requireContainerInvariants(t, c)
	if !c.Tag() {
		require.Len(t, c.components, len(c.entities))
	}
}
