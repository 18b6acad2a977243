package main

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/TheBitDrifter/stockroom/snapshot"
)

// benchConfig is read from the environment.
type benchConfig struct {
	// Number of entities spawned into the scene.
	Entities int `env:"STOCKROOM_ENTITIES" envDefault:"10000"`

	// Number of update frames run before the snapshot is taken.
	Frames int `env:"STOCKROOM_FRAMES" envDefault:"100"`

	// Snapshot backend: NOP, FILE or REDIS.
	Snapshot string `env:"STOCKROOM_SNAPSHOT" envDefault:"NOP"`

	SnapshotPath string `env:"STOCKROOM_SNAPSHOT_PATH" envDefault:"stockroom.snapshot"`

	RedisAddr string `env:"STOCKROOM_REDIS_ADDR" envDefault:"localhost:6379"`

	// Profiler to run the bench under: none, cpu or mem.
	Profile string `env:"STOCKROOM_PROFILE" envDefault:"none"`

	LogLevel string `env:"STOCKROOM_LOG_LEVEL" envDefault:"info"`
}

func loadConfig() (benchConfig, error) {
	cfg := benchConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse bench config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

func (cfg *benchConfig) validate() error {
	if cfg.Entities <= 0 {
		return eris.New("entities must be positive")
	}
	if cfg.Frames < 0 {
		return eris.New("frames cannot be negative")
	}
	storageType, err := snapshot.ParseStorageType(cfg.Snapshot)
	if err != nil {
		return err
	}
	if storageType == snapshot.StorageTypeFile && cfg.SnapshotPath == "" {
		return eris.New("snapshot path cannot be empty for file snapshots")
	}
	if storageType == snapshot.StorageTypeRedis && cfg.RedisAddr == "" {
		return eris.New("redis address cannot be empty for redis snapshots")
	}
	switch strings.ToLower(cfg.Profile) {
	case "none", "cpu", "mem":
	default:
		return eris.Errorf("invalid profile mode: %s", cfg.Profile)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return nil
}

func (cfg *benchConfig) storageType() snapshot.StorageType {
	storageType, _ := snapshot.ParseStorageType(cfg.Snapshot)
	return storageType
}

func (cfg *benchConfig) level() zerolog.Level {
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	return level
}

// newSnapshotStorage builds the backend selected by the config. The returned close func is
// never nil.
func (cfg *benchConfig) newSnapshotStorage() (snapshot.Storage, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.storageType() {
	case snapshot.StorageTypeFile:
		fs, err := snapshot.NewFileStorage(cfg.SnapshotPath)
		if err != nil {
			return nil, noClose, err
		}
		return fs, noClose, nil
	case snapshot.StorageTypeRedis:
		rs, err := snapshot.NewRedisStorage(snapshot.RedisStorageOptions{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, noClose, err
		}
		return rs, rs.Close, nil
	case snapshot.StorageTypeNop:
		return snapshot.NewNopStorage(), noClose, nil
	case snapshot.StorageTypeUndefined:
	}
	return nil, noClose, eris.Errorf("unsupported snapshot storage: %s", cfg.Snapshot)
}
