package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Snapshot is a point-in-time capture of a storage, ready to be handed to a Storage backend.
type Snapshot struct {
	Version   uint32    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Entities  int       `json:"entities"`
	// Data is the binary image written by stockroom.Storage.Serialize.
	Data []byte `json:"data"`
	// Schemas holds the JSON schema of every registered component at capture time.
	Schemas map[string]json.RawMessage `json:"schemas"`
}

const CurrentVersion uint32 = 1

var ErrSnapshotNotFound = eris.New("snapshot not found")

// Storage provides persistence for snapshots.
// Implementations replace the current snapshot atomically and keep the previous one as a
// backup where they can.
type Storage interface {
	Store(ctx context.Context, snapshot *Snapshot) error

	// Load retrieves the current snapshot. It returns an error wrapping ErrSnapshotNotFound if
	// nothing has been stored.
	Load(ctx context.Context) (*Snapshot, error)
}

func marshal(snapshot *Snapshot) ([]byte, error) {
	bz, err := json.Marshal(snapshot)
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal snapshot")
	}
	return bz, nil
}

func unmarshal(bz []byte) (*Snapshot, error) {
	snapshot := new(Snapshot)
	if err := json.Unmarshal(bz, snapshot); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal snapshot")
	}
	return snapshot, nil
}

// StorageType defines the type of snapshot storage to use.
type StorageType uint8

const (
	StorageTypeUndefined StorageType = iota
	StorageTypeNop
	StorageTypeFile
	StorageTypeRedis
)

const (
	nopStorageString       = "NOP"
	fileStorageString      = "FILE"
	redisStorageString     = "REDIS"
	undefinedStorageString = "UNDEFINED"
)

func (s StorageType) String() string {
	switch s {
	case StorageTypeUndefined:
		return undefinedStorageString
	case StorageTypeNop:
		return nopStorageString
	case StorageTypeFile:
		return fileStorageString
	case StorageTypeRedis:
		return redisStorageString
	default:
		return undefinedStorageString
	}
}

func (s StorageType) IsValid() bool {
	return s == StorageTypeNop || s == StorageTypeFile || s == StorageTypeRedis
}

func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToUpper(s) {
	case nopStorageString:
		return StorageTypeNop, nil
	case fileStorageString:
		return StorageTypeFile, nil
	case redisStorageString:
		return StorageTypeRedis, nil
	default:
		return StorageTypeUndefined, eris.Errorf("invalid snapshot storage type: %s", s)
	}
}
