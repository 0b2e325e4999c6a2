package store

import (
	"sync"

	"github.com/yevheniihorbatyuk/recordkit/pkg/codec"
	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// RecordStore is an ordered, insertion-order-preserving collection of
// user records with bulk export/import through a codec. All operations
// are synchronized internally, so a single store instance can be shared;
// individual records are immutable and need no further protection.
//
// The store never touches the filesystem. Callers move the exported
// bytes to wherever they live (see pkg/storage for the file-boundary
// collaborators).
type RecordStore struct {
	mu      sync.Mutex
	records []*record.User
	metrics *Metrics
}

// RecordStoreConfig holds configuration for the record store.
type RecordStoreConfig struct {
	// Metrics is optional; when nil, no metrics are recorded.
	Metrics *Metrics
}

// NewRecordStore creates an empty record store.
func NewRecordStore(config RecordStoreConfig) *RecordStore {
	return &RecordStore{
		metrics: config.Metrics,
	}
}

// Add appends a record to the collection. It never deduplicates: adding
// two users with the same id keeps both. Records reach the store only
// through the validating constructors in pkg/record, so Add has nothing
// left to check.
func (s *RecordStore) Add(u *record.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, u)
	s.metrics.RecordAdd()
	s.metrics.SetRecords(len(s.records))
}

// All returns the records in insertion order. The returned slice is a
// copy; mutating it does not affect the store.
func (s *RecordStore) All() []*record.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*record.User, len(s.records))
	copy(records, s.records)
	return records
}

// Len returns the number of records in the store.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// ExportAs encodes the full collection with the given codec.
func (s *RecordStore) ExportAs(c codec.Codec) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := c.Encode(s.records)
	if err != nil {
		s.metrics.RecordOp(opExport, c.Name(), statusError)
		return nil, err
	}
	s.metrics.RecordOp(opExport, c.Name(), statusSuccess)
	return data, nil
}

// ImportFrom decodes the transport blob and appends every resulting
// record. The append is all-or-nothing: if any part of the decode fails,
// the store is left exactly as it was and the first error propagates.
func (s *RecordStore) ImportFrom(c codec.Codec, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decoded, err := c.Decode(data)
	if err != nil {
		s.metrics.RecordOp(opImport, c.Name(), statusError)
		return err
	}

	s.records = append(s.records, decoded...)
	s.metrics.RecordOp(opImport, c.Name(), statusSuccess)
	s.metrics.SetRecords(len(s.records))
	return nil
}
