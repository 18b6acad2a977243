package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBitDrifter/stockroom"
	"github.com/TheBitDrifter/stockroom/snapshot"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		require.NoError(t, err)
		assert.Equal(t, 10000, cfg.Entities)
		assert.Equal(t, snapshot.StorageTypeNop, cfg.storageType())
		assert.Equal(t, zerolog.InfoLevel, cfg.level())
	})

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"no entities", "STOCKROOM_ENTITIES", "0"},
		{"negative frames", "STOCKROOM_FRAMES", "-1"},
		{"unknown backend", "STOCKROOM_SNAPSHOT", "S3"},
		{"unknown profile", "STOCKROOM_PROFILE", "trace"},
		{"unknown level", "STOCKROOM_LOG_LEVEL", "loud"},
		{"not a number", "STOCKROOM_ENTITIES", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}

func TestFrame(t *testing.T) {
	sto := stockroom.Factory.NewStorage()
	require.NoError(t, buildScene(sto, 20))

	sys, err := newSystems(sto)
	require.NoError(t, err)

	_, err = sys.frame()
	require.NoError(t, err)

	// Entity 2 moves, entity 0 is frozen, entity 1 has no velocity.
	entities := sto.Entities()
	for i, wantX := range []float64{0, 1, 3} {
		pos, err := stockroom.GetComponent[Position](sto, entities[i])
		require.NoError(t, err)
		assert.Equal(t, wantX, pos.X, "entity %d", i)
	}

	h, err := stockroom.GetComponent[Health](sto, entities[0])
	require.NoError(t, err)
	assert.Equal(t, int32(99), h.Current)
}

func TestFrameDestroysDeadEntities(t *testing.T) {
	sto := stockroom.Factory.NewStorage()
	require.NoError(t, buildScene(sto, 9))

	sys, err := newSystems(sto)
	require.NoError(t, err)

	died := 0
	for range 100 {
		n, err := sys.frame()
		require.NoError(t, err)
		died += n
	}
	assert.Equal(t, 3, died)
	assert.Equal(t, 6, sto.Len())
	assert.False(t, sto.Locked())
}

func TestThaw(t *testing.T) {
	sto := stockroom.Factory.NewStorage()
	require.NoError(t, buildScene(sto, 30))

	sys, err := newSystems(sto)
	require.NoError(t, err)

	// 0, 10 and 20 are frozen, and all of them move.
	n, err := sys.thaw()
	require.NoError(t, err)
	assert.Zero(t, n)

	entities := sto.Entities()
	require.NoError(t, stockroom.RemoveComponent[Velocity](sto, entities[10]))

	n, err = sys.thaw()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, stockroom.HasComponent[Frozen](sto, entities[10]))
	assert.True(t, stockroom.HasComponent[Frozen](sto, entities[20]))
}

func TestRun(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  benchConfig
	}{
		{"nop", benchConfig{Snapshot: "NOP"}},
		{"file", benchConfig{Snapshot: "FILE", SnapshotPath: filepath.Join(t.TempDir(), "scene.snapshot")}},
		{"redis", benchConfig{Snapshot: "REDIS", RedisAddr: mr.Addr()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Entities = 500
			cfg.Frames = 120
			cfg.Profile = "none"
			cfg.LogLevel = "disabled"
			require.NoError(t, cfg.validate())

			require.NoError(t, run(context.Background(), cfg, zerolog.Nop()))
		})
	}
}
