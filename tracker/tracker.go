// Package tracker keeps the in-memory list of per-file conversion
// records. Records are created when a file is admitted, updated once by
// the conversion outcome, and destroyed on removal or clear; destruction
// releases the record's registry handles.
package tracker

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"imgconv/contracts"
	"imgconv/handles"
	"imgconv/logging"
)

// Record tracks one admitted file through its conversion.
type Record struct {
	ID              string
	File            contracts.FileInfo
	OriginalHandle  contracts.Handle
	ConvertedHandle contracts.Handle
	OutputName      string
	Converting      bool
	SourceFormat    contracts.Format
	TargetFormat    contracts.Format
	OriginalSize    int64
	ConvertedSize   int64
}

// Store owns the record list. All mutation goes through the Store, which
// serializes access; completion callbacks for records that were removed
// in the meantime release their result instead of mutating state.
type Store struct {
	mu       sync.Mutex
	records  []*Record
	registry *handles.Registry
}

// NewStore returns an empty store backed by the given handle registry.
func NewStore(registry *handles.Registry) *Store {
	return &Store{registry: registry}
}

// CreateRecord admits one file for conversion to target. The returned
// snapshot has Converting=true, ConvertedSize=0 and an output name with
// the target's canonical extension.
func (s *Store) CreateRecord(file contracts.FileInfo, target contracts.Format) Record {
	rec := &Record{
		ID:             uuid.NewString(),
		File:           file,
		OriginalHandle: s.registry.Create(file.Data, file.MediaType),
		OutputName:     OutputName(file.Name, target),
		Converting:     true,
		SourceFormat:   contracts.SourceFormat(file.MediaType),
		TargetFormat:   target,
		OriginalSize:   file.Size(),
	}
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return *rec
}

// OutputName replaces the trailing extension of name (if any) with the
// target format's canonical extension.
func OutputName(name string, target contracts.Format) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + target.Ext()
}

// Complete records a successful conversion outcome. When the record was
// removed before the conversion resolved, the stale result handle is
// released and false is returned.
func (s *Store) Complete(id string, result contracts.ConvertResult) bool {
	s.mu.Lock()
	rec := s.find(id)
	if rec == nil {
		s.mu.Unlock()
		s.registry.Release(result.Handle)
		logging.Debug("discarding stale conversion result for record %s", id)
		return false
	}
	rec.ConvertedHandle = result.Handle
	rec.ConvertedSize = result.Size
	rec.Converting = false
	s.mu.Unlock()
	return true
}

// Fail discards the record for a failed conversion, releasing its
// original handle.
func (s *Store) Fail(id string) {
	s.Remove(id)
}

// Remove destroys one record: the original handle is released always,
// the converted handle only if non-empty. Returns false when no record
// with that id exists.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records {
		if rec.ID == id {
			s.release(rec)
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Clear destroys all records in list order.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		s.release(rec)
	}
	s.records = nil
}

// Get returns a snapshot of one record.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.find(id); rec != nil {
		return *rec, true
	}
	return Record{}, false
}

// List returns a snapshot of all records in creation order.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	for i, rec := range s.records {
		out[i] = *rec
	}
	return out
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// find returns the record with the given id. Caller holds s.mu.
func (s *Store) find(id string) *Record {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// release frees a record's handles. Caller holds s.mu.
func (s *Store) release(rec *Record) {
	s.registry.Release(rec.OriginalHandle)
	if rec.ConvertedHandle != "" {
		s.registry.Release(rec.ConvertedHandle)
	}
}
