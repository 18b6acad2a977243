package stockroom

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBitDrifter/stockroom/archive"
	"github.com/TheBitDrifter/stockroom/internal/testutils"
)

func TestContainerAddRemove(t *testing.T) {
	tests := []struct {
		name    string
		add     []uint32
		remove  []uint32
		wantLen int
	}{
		{"add only", []uint32{0, 1, 2}, nil, 3},
		{"remove middle", []uint32{0, 1, 2}, []uint32{1}, 2},
		{"remove first", []uint32{0, 1, 2}, []uint32{0}, 2},
		{"remove last", []uint32{0, 1, 2}, []uint32{2}, 2},
		{"remove only entity", []uint32{5}, []uint32{5}, 0},
		{"remove all in reverse", []uint32{3, 9, 1}, []uint32{1, 9, 3}, 0},
		{"sparse indices", []uint32{1000, 3, 70000}, []uint32{3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newContainer[testutils.Position]()
			for _, idx := range tt.add {
				e := Pack(idx, 0)
				p, err := c.add(e, testutils.Position{X: float64(idx)})
				require.NoError(t, err)
				assert.Equal(t, float64(idx), p.X)
				requireComponentsAligned(t, c)
			}
			for _, idx := range tt.remove {
				e := Pack(idx, 0)
				require.NoError(t, c.remove(e))
				assert.False(t, c.Has(e))
				requireComponentsAligned(t, c)
			}

			assert.Equal(t, tt.wantLen, c.Size())
			removed := make(map[uint32]bool)
			for _, idx := range tt.remove {
				removed[idx] = true
			}
			for _, idx := range tt.add {
				if removed[idx] {
					continue
				}
				p, err := c.Get(Pack(idx, 0))
				require.NoError(t, err)
				assert.Equal(t, float64(idx), p.X, "component must follow its entity through swaps")
			}
		})
	}
}

func TestContainerContractErrors(t *testing.T) {
	c := newContainer[testutils.Position]()
	e := Pack(1, 0)
	_, err := c.add(e, testutils.Position{})
	require.NoError(t, err)

	_, err = c.add(e, testutils.Position{})
	var exists ComponentExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, e, exists.Entity)
	assert.Equal(t, "position", exists.Component)

	var notFound ComponentNotFoundError
	require.ErrorAs(t, c.remove(Pack(2, 0)), &notFound)
	_, err = c.Get(Pack(99, 0))
	require.ErrorAs(t, err, &notFound)

	_, ok := c.TryGet(Pack(99, 0))
	assert.False(t, ok)
	requireComponentsAligned(t, c)
}

func TestContainerStaleGeneration(t *testing.T) {
	c := newContainer[testutils.Position]()
	old := Pack(1, 0)
	_, err := c.add(old, testutils.Position{X: 1})
	require.NoError(t, err)

	recycled := Pack(1, 1)
	assert.False(t, c.Has(recycled))
	_, ok := c.TryGet(recycled)
	assert.False(t, ok)

	_, err = c.add(recycled, testutils.Position{})
	require.ErrorAs(t, err, &ComponentExistsError{}, "an occupied index must not be overwritten")
	require.ErrorAs(t, c.remove(recycled), &ComponentNotFoundError{})
	requireComponentsAligned(t, c)
}

func TestContainerTag(t *testing.T) {
	c := newContainer[testutils.Frozen]()
	assert.True(t, c.Tag())

	a, err := c.add(Pack(0, 0), testutils.Frozen{})
	require.NoError(t, err)
	b, err := c.add(Pack(1, 0), testutils.Frozen{})
	require.NoError(t, err)
	assert.Same(t, a, b, "tags share one instance")
	assert.Nil(t, c.Raw())
	assert.Equal(t, 2, c.Size())

	require.NoError(t, c.remove(Pack(0, 0)))
	assert.False(t, c.Has(Pack(0, 0)))
	assert.True(t, c.Has(Pack(1, 0)))
	requireComponentsAligned(t, c)
}

func TestContainerClear(t *testing.T) {
	c := newContainer[testutils.Position]()
	for i := uint32(0); i < 10; i++ {
		_, err := c.add(Pack(i, 0), testutils.Position{})
		require.NoError(t, err)
	}
	c.clear()
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Raw())
	for i := uint32(0); i < 10; i++ {
		assert.False(t, c.Has(Pack(i, 0)))
	}
	requireComponentsAligned(t, c)
}

type containerOp uint8

const (
	containerOpAdd    containerOp = 50
	containerOpRemove containerOp = 35
	containerOpGet    containerOp = 15
)

// TestContainerModel runs random operations against a container and a plain map and checks
// that they agree after every step.
func TestContainerModel(t *testing.T) {
	const (
		opsMax   = 1 << 14
		indexMax = 512
	)

	r := testutils.NewRand(t)
	c := newContainer[testutils.Position]()
	model := make(map[Entity]testutils.Position)
	ops := []containerOp{containerOpAdd, containerOpRemove, containerOpGet}

	for i := 0; i < opsMax; i++ {
		switch testutils.RandWeightedOp(r, ops) {
		case containerOpAdd:
			e := Pack(uint32(r.IntN(indexMax)), 0)
			v := testutils.Position{X: r.Float64(), Y: r.Float64()}
			_, err := c.add(e, v)
			if _, exists := model[e]; exists {
				require.ErrorAs(t, err, &ComponentExistsError{})
				continue
			}
			require.NoError(t, err)
			model[e] = v
		case containerOpRemove:
			if len(model) == 0 {
				continue
			}
			e := testutils.RandMapKey(r, model)
			require.NoError(t, c.remove(e))
			delete(model, e)
		case containerOpGet:
			e := Pack(uint32(r.IntN(indexMax)), 0)
			got, ok := c.TryGet(e)
			want, exists := model[e]
			require.Equal(t, exists, ok)
			if exists {
				require.Equal(t, want, *got)
			}
		}
		require.Equal(t, len(model), c.Size())
	}

	requireComponentsAligned(t, c)
	for e, want := range model {
		got, err := c.Get(e)
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	}
}

func TestContainerEntityList(t *testing.T) {
	src := newContainer[testutils.Position]()
	for _, idx := range []uint32{4, 0, 17} {
		_, err := src.add(Pack(idx, 2), testutils.Position{})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, src.writeEntities(archive.NewWriter(&buf)))
	assert.Equal(t, 8*(2+3), buf.Len())

	var dst containerBase
	require.NoError(t, dst.readEntities(archive.NewReader(bytes.NewReader(buf.Bytes()))))
	assert.Equal(t, src.entities, dst.entities, "dense order is preserved")
	for j, e := range dst.entities {
		assert.Equal(t, uint64(j), dst.indirect[e.Index()])
	}
}

func TestContainerEntityListCorrupt(t *testing.T) {
	encode := func(values ...uint64) []byte {
		var buf bytes.Buffer
		w := archive.NewWriter(&buf)
		for _, v := range values {
			require.NoError(t, w.WriteUint64(v))
		}
		return buf.Bytes()
	}

	tests := []struct {
		name      string
		data      []byte
		truncated bool
	}{
		{"size exceeds capacity", encode(1, 2, 0, 1), false},
		{"duplicate entity", encode(2, 2, 3, 3), false},
		{"duplicate index with another generation", encode(2, 2, 3, 1<<32|3), false},
		{"null entity", encode(1, 1, uint64(NullEntity)), false},
		{"empty input", nil, true},
		{"missing size", encode(4), true},
		{"missing entities", encode(4, 3, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c containerBase
			err := c.readEntities(archive.NewReader(bytes.NewReader(tt.data)))
			require.ErrorIs(t, err, archive.ErrArchive)
			assert.Equal(t, tt.truncated, errors.Is(err, io.ErrUnexpectedEOF))
		})
	}
}
