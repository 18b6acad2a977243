// Command stockroom-bench builds a scene, runs update frames over it and round trips it
// through a snapshot backend. It is configured through STOCKROOM_* environment variables.
//
// Profiling:
//
//	STOCKROOM_PROFILE=cpu go run ./cmd/stockroom-bench
//	go tool pprof -http=":8000" ./cpu.pprof
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/TheBitDrifter/stockroom"
	"github.com/TheBitDrifter/stockroom/snapshot"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.level())

	p := startProfile(cfg.Profile)
	err = run(context.Background(), cfg, logger)
	if p != nil {
		p.Stop()
	}
	if err != nil {
		logger.Error().Str("trace", eris.ToString(err, true)).Msg("bench failed")
		os.Exit(1)
	}
}

func startProfile(mode string) interface{ Stop() } {
	switch strings.ToLower(mode) {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		return nil
	}
}

func run(ctx context.Context, cfg benchConfig, logger zerolog.Logger) error {
	sto := stockroom.Factory.NewStorage(
		stockroom.WithLogger(logger.With().Str("storage", "scene").Logger()),
		stockroom.WithCapacity(cfg.Entities),
	)

	start := time.Now()
	if err := buildScene(sto, cfg.Entities); err != nil {
		return eris.Wrap(err, "failed to build scene")
	}
	logger.Info().
		Int("entities", sto.Len()).
		Int("containers", len(sto.Containers())).
		Dur("took", time.Since(start)).
		Msg("scene built")

	sys, err := newSystems(sto)
	if err != nil {
		return err
	}

	start = time.Now()
	died := 0
	for range cfg.Frames {
		n, err := sys.frame()
		if err != nil {
			return eris.Wrap(err, "frame failed")
		}
		died += n
	}
	thawed, err := sys.thaw()
	if err != nil {
		return eris.Wrap(err, "thaw failed")
	}
	logger.Info().
		Int("frames", cfg.Frames).
		Int("died", died).
		Int("thawed", thawed).
		Int("alive", sto.Len()).
		Dur("took", time.Since(start)).
		Msg("frames complete")

	return roundTrip(ctx, cfg, sto, logger)
}

// roundTrip stores a snapshot of sto, loads it back into a fresh storage and checks that
// both hold the same entities and component counts.
func roundTrip(ctx context.Context, cfg benchConfig, sto stockroom.Storage, logger zerolog.Logger) error {
	backend, closeBackend, err := cfg.newSnapshotStorage()
	if err != nil {
		return eris.Wrap(err, "failed to create snapshot storage")
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn().Err(err).Msg("failed to close snapshot storage")
		}
	}()

	snap, err := snapshot.Capture(sto)
	if err != nil {
		return err
	}
	if err := backend.Store(ctx, snap); err != nil {
		return eris.Wrap(err, "failed to store snapshot")
	}
	logger.Info().
		Stringer("backend", cfg.storageType()).
		Int("bytes", len(snap.Data)).
		Msg("snapshot stored")

	loaded, err := backend.Load(ctx)
	if errors.Is(err, snapshot.ErrSnapshotNotFound) {
		logger.Info().Stringer("backend", cfg.storageType()).Msg("backend keeps no snapshots, restoring from memory")
		loaded, err = snap, nil
	}
	if err != nil {
		return eris.Wrap(err, "failed to load snapshot")
	}

	restored := stockroom.Factory.NewStorage(
		stockroom.WithLogger(logger.With().Str("storage", "restored").Logger()),
	)
	if err := snapshot.Restore(loaded, restored); err != nil {
		return err
	}

	return verify(sto, restored)
}

func verify(want, got stockroom.Storage) error {
	if want.Len() != got.Len() {
		return eris.Errorf("entity count mismatch: %d != %d", want.Len(), got.Len())
	}
	for _, c := range want.Containers() {
		other, ok := got.Container(c.TypeID())
		if !ok {
			if c.Size() == 0 {
				continue
			}
			return eris.Errorf("container %s missing after restore", c.Name())
		}
		if other.Size() != c.Size() {
			return eris.Errorf("container %s holds %d components, want %d", c.Name(), other.Size(), c.Size())
		}
	}
	return nil
}
