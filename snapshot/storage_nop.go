package snapshot

import (
	"context"

	"github.com/rotisserie/eris"
)

// NopStorage discards snapshots. It's used when persistence is not needed, e.g. in benchmarks.
type NopStorage struct{}

var _ Storage = (*NopStorage)(nil)

func NewNopStorage() *NopStorage {
	return &NopStorage{}
}

func (n *NopStorage) Store(_ context.Context, _ *Snapshot) error {
	return nil
}

func (n *NopStorage) Load(_ context.Context) (*Snapshot, error) {
	return nil, eris.Wrap(ErrSnapshotNotFound, "no snapshots available (using no-op storage)")
}
