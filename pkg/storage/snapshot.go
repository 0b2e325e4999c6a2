package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/yevheniihorbatyuk/recordkit/pkg/codec"
	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// ErrSnapshotNotFound is returned when no snapshot exists for an id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStorage persists whole-collection snapshots in a pebble
// database. Each Save encodes the given users with the configured codec
// and stores the blob under a fresh ksuid, so snapshot ids sort by
// creation time at second precision.
type SnapshotStorage struct {
	db    *pebble.DB
	codec codec.Codec
}

// NewSnapshotStorage opens (or creates) a pebble database at path.
func NewSnapshotStorage(path string, c codec.Codec) (*SnapshotStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &SnapshotStorage{db: db, codec: c}, nil
}

// Save encodes the users and stores the blob, returning the snapshot id.
func (s *SnapshotStorage) Save(users []*record.User) (ksuid.KSUID, error) {
	blob, err := s.codec.Encode(users)
	if err != nil {
		return ksuid.Nil, err
	}

	id := ksuid.New()
	if err := s.db.Set(id.Bytes(), blob, pebble.Sync); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Load decodes the snapshot stored under id. Every record passes through
// the usual decode-time validation.
func (s *SnapshotStorage) Load(id ksuid.KSUID) ([]*record.User, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %s: %w", id, ErrSnapshotNotFound)
		}
		return nil, err
	}
	// The slice is only valid until the closer is released.
	blob := append([]byte(nil), data...)
	if err := closer.Close(); err != nil {
		return nil, err
	}

	return s.codec.Decode(blob)
}

// Delete removes the snapshot stored under id. Deleting a missing
// snapshot is not an error.
func (s *SnapshotStorage) Delete(id ksuid.KSUID) error {
	return s.db.Delete(id.Bytes(), pebble.Sync)
}

// List returns all snapshot ids in key order.
func (s *SnapshotStorage) List() ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			iter.Close()
			return nil, fmt.Errorf("foreign key in snapshot database: %w", err)
		}
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *SnapshotStorage) Close() error {
	return s.db.Close()
}
