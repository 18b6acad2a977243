package snapshot

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/TheBitDrifter/stockroom"
)

// Capture serializes sto together with the schemas of its registry.
func Capture(sto stockroom.Storage) (*Snapshot, error) {
	var buf bytes.Buffer
	if err := sto.Serialize(&buf); err != nil {
		return nil, eris.Wrap(err, "failed to serialize storage")
	}

	schemas := make(map[string]json.RawMessage)
	for name, schema := range sto.Registry().Schemas() {
		schemas[name] = schema
	}

	return &Snapshot{
		Version:   CurrentVersion,
		Timestamp: time.Now(),
		Entities:  sto.Len(),
		Data:      buf.Bytes(),
		Schemas:   schemas,
	}, nil
}

// Restore checks the snapshot against the schemas of the registry of sto and loads it. The
// data is first loaded into a scratch storage, so a snapshot that fails any check, including
// a schema mismatch (wrapping stockroom.ErrComponentSchemaMismatch), leaves sto untouched.
func Restore(snapshot *Snapshot, sto stockroom.Storage) error {
	if snapshot == nil {
		return eris.New("snapshot cannot be nil")
	}
	if snapshot.Version != CurrentVersion {
		return eris.Errorf("unsupported snapshot version %d (want %d)", snapshot.Version, CurrentVersion)
	}

	stored := make(map[string][]byte, len(snapshot.Schemas))
	for name, schema := range snapshot.Schemas {
		stored[name] = schema
	}
	if err := sto.Registry().ValidateSchemas(stored); err != nil {
		return err
	}

	scratch := stockroom.Factory.NewStorage(
		stockroom.WithRegistry(sto.Registry()),
		stockroom.WithLogger(zerolog.Nop()),
	)
	if err := scratch.Deserialize(bytes.NewReader(snapshot.Data)); err != nil {
		return eris.Wrap(err, "failed to deserialize storage")
	}
	if scratch.Len() != snapshot.Entities {
		return eris.Errorf("snapshot holds %d entities, header recorded %d", scratch.Len(), snapshot.Entities)
	}

	if err := sto.Deserialize(bytes.NewReader(snapshot.Data)); err != nil {
		return eris.Wrap(err, "failed to deserialize storage")
	}

	sto.Logger().Info().
		Time("taken_at", snapshot.Timestamp).
		Int("entities", snapshot.Entities).
		Msg("snapshot restored")
	return nil
}
