package stockroom

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBitDrifter/stockroom/archive"
	"github.com/TheBitDrifter/stockroom/internal/testutils"
)

type unnamed struct{}

func (unnamed) Name() string { return "" }

type velocityClash struct {
	X float32
}

func (velocityClash) Name() string { return "velocity" }

// counter is encoded by hand as u32 values.
type counter struct {
	N uint32
}

func (counter) Name() string { return "counter" }

var counterCodec = CodecFuncs[counter]{
	EncodeFunc: func(w *archive.Writer, values []counter) error {
		for _, v := range values {
			if err := w.WriteUint32(v.N); err != nil {
				return err
			}
		}
		return nil
	},
	DecodeFunc: func(r *archive.Reader, n uint64) ([]counter, error) {
		var out []counter
		for i := uint64(0); i < n; i++ {
			v, err := r.ReadUint32()
			if err != nil {
				return nil, err
			}
			out = append(out, counter{N: v})
		}
		return out, nil
	},
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *Registry) error
		wantErr  bool
	}{
		{"binary codec", func(r *Registry) error {
			return Register(r, BinaryCodec[testutils.Velocity]())
		}, false},
		{"same type twice", func(r *Registry) error {
			return Register(r, BinaryCodec[testutils.Position]())
		}, false},
		{"json codec", func(r *Registry) error {
			return Register(r, JSONCodec[testutils.Inventory]())
		}, false},
		{"codec funcs", func(r *Registry) error {
			return Register[counter](r, counterCodec)
		}, false},
		{"tag with any codec", func(r *Registry) error {
			return Register(r, JSONCodec[testutils.Frozen]())
		}, false},
		{"name clash", func(r *Registry) error {
			return Register(r, BinaryCodec[velocityClash]())
		}, true},
		{"empty name", func(r *Registry) error {
			return Register(r, BinaryCodec[unnamed]())
		}, true},
		{"nil codec", func(r *Registry) error {
			return Register[testutils.Health](r, nil)
		}, true},
		{"binary codec for variable-size type", func(r *Registry) error {
			return Register(r, BinaryCodec[testutils.Inventory]())
		}, true},
		{"incomplete codec funcs", func(r *Registry) error {
			return Register[testutils.Health](r, CodecFuncs[testutils.Health]{})
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, Register(r, BinaryCodec[testutils.Position]()))
			require.NoError(t, Register(r, BinaryCodec[testutils.Velocity]()))

			err := tt.register(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := newTestRegistry(t)

	entry, ok := r.Lookup(TypeIDOf[testutils.Health]())
	require.True(t, ok)
	assert.Equal(t, "health", entry.Name)
	assert.Equal(t, TypeIDFor("health"), entry.ID)
	assert.NotEmpty(t, entry.Schema)

	byName, ok := r.LookupName("health")
	require.True(t, ok)
	assert.Equal(t, entry, byName)

	_, ok = r.Lookup(TypeIDFor("missing"))
	assert.False(t, ok)

	assert.Equal(t, []string{"position", "velocity", "health", "frozen", "inventory"}, r.Names())
	types := r.Types()
	assert.Len(t, types, 5)
	assert.True(t, slices.IsSorted(types))
	assert.Len(t, r.Schemas(), 5)
}

func TestRegistryCodecFuncsRoundTrip(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, Register[counter](r, counterCodec))

	src := Factory.NewStorage(WithRegistry(r))
	entities, err := src.NewEntities(3)
	require.NoError(t, err)
	for i, e := range entities {
		_, err := AddComponent(src, e, counter{N: uint32(i * 10)})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, src.Serialize(&buf))
	dst := Factory.NewStorage(WithRegistry(r))
	require.NoError(t, dst.Deserialize(&buf))
	for i, e := range entities {
		c, err := GetComponent[counter](dst, e)
		require.NoError(t, err)
		assert.Equal(t, uint32(i*10), c.N)
	}
}

func TestValidateSchemas(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.ValidateSchemas(r.Schemas()))

	stored := r.Schemas()
	stored["unknown"] = []byte(`{"type":"object"}`)
	require.NoError(t, r.ValidateSchemas(stored), "components the registry lacks are skipped")

	clash := NewRegistry()
	require.NoError(t, Register(clash, BinaryCodec[velocityClash]()))
	stored = r.Schemas()
	stored["velocity"] = clash.Schemas()["velocity"]

	err := r.ValidateSchemas(stored)
	require.ErrorIs(t, err, ErrComponentSchemaMismatch)
	assert.Contains(t, err.Error(), `"velocity"`)
}

type mustRegistered struct {
	V uint8
}

func (mustRegistered) Name() string { return "registry_test.must" }

type mustClash struct {
	V uint16
}

func (mustClash) Name() string { return "registry_test.must" }

func TestMustRegister(t *testing.T) {
	assert.NotPanics(t, func() { MustRegister(BinaryCodec[mustRegistered]()) })
	assert.NotPanics(t, func() { MustRegister(BinaryCodec[mustRegistered]()) })
	assert.Panics(t, func() { MustRegister(BinaryCodec[mustClash]()) })

	_, ok := DefaultRegistry.LookupName("registry_test.must")
	assert.True(t, ok)
}

func TestTypeIDStable(t *testing.T) {
	// TypeIDs end up in save files and must never change for a given name.
	assert.Equal(t, TypeIDFor("position"), TypeIDOf[testutils.Position]())
	assert.NotEqual(t, TypeIDOf[testutils.Position](), TypeIDOf[testutils.Velocity]())
	assert.Regexp(t, `^0x[0-9a-f]{16}$`, TypeIDFor("position").String())
}
