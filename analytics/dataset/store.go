package dataset

import (
	"errors"
	"sync"
)

// Store failures surfaced to handlers
var (
	ErrNoDataset      = errors.New("no dataset uploaded")
	ErrUploadInFlight = errors.New("an upload is already in progress")
)

// Store holds the most recent dataset per user. Uploads are
// single-flight per user: a second upload that starts while the first
// is still being processed is rejected instead of racing it.
type Store struct {
	mu       sync.Mutex
	datasets map[string]*Dataset
	inFlight map[string]bool
}

// NewStore creates a new dataset store
func NewStore() *Store {
	return &Store{
		datasets: make(map[string]*Dataset),
		inFlight: make(map[string]bool),
	}
}

// BeginUpload claims the upload slot for a user. Returns
// ErrUploadInFlight if another upload is still processing.
func (s *Store) BeginUpload(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[userID] {
		return ErrUploadInFlight
	}
	s.inFlight[userID] = true
	return nil
}

// CompleteUpload stores the parsed dataset and releases the upload slot
func (s *Store) CompleteUpload(userID string, ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[userID] = ds
	delete(s.inFlight, userID)
}

// AbortUpload releases the upload slot without replacing the dataset
func (s *Store) AbortUpload(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, userID)
}

// Get returns the current dataset for a user
func (s *Store) Get(userID string) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[userID]
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// Clear removes the stored dataset for a user
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.datasets, userID)
}
