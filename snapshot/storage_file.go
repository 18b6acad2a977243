package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileStorage keeps the current snapshot in a single file. The previous snapshot is moved to
// Path + ".bak" on every Store.
type FileStorage struct {
	Path string
}

var _ Storage = (*FileStorage)(nil)

func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, eris.New("snapshot path cannot be empty")
	}
	return &FileStorage{Path: path}, nil
}

func (f *FileStorage) BackupPath() string {
	return f.Path + ".bak"
}

// Store replaces the current snapshot. The previous one is first copied to BackupPath, and
// every file is written to a temporary file and renamed into place, so a current snapshot
// exists at every point of the update.
func (f *FileStorage) Store(ctx context.Context, snapshot *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "snapshot store cancelled")
	}
	data, err := marshal(snapshot)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return eris.Wrap(err, "failed to create snapshot directory")
	}

	prev, err := os.ReadFile(f.Path)
	switch {
	case err == nil:
		if err := writeFileAtomic(f.BackupPath(), prev); err != nil {
			return eris.Wrap(err, "failed to back up previous snapshot")
		}
	case !errors.Is(err, fs.ErrNotExist):
		return eris.Wrap(err, "failed to read previous snapshot")
	}

	if err := writeFileAtomic(f.Path, data); err != nil {
		return eris.Wrap(err, "failed to write snapshot file")
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "failed to close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return eris.Wrap(err, "failed to rename temp file")
	}
	return nil
}

func (f *FileStorage) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "snapshot load cancelled")
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrSnapshotNotFound, "no snapshot at %s", f.Path)
		}
		return nil, eris.Wrap(err, "failed to read snapshot file")
	}
	return unmarshal(data)
}
