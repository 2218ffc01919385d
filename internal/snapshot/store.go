package snapshot

import (
	"fmt"
	"log/slog"
)

// Store is the run-facing view of a Backend: loading never fails, saving
// reports its error to the caller.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

func NewStore(backend Backend, logger *slog.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns the stored snapshot, or an empty one when the backend has
// nothing stored or fails to produce a valid snapshot.
func (s *Store) Load() Snapshot {
	loaded, err := s.backend.Load()
	if err != nil {
		s.logger.Warn("snapshot unreadable; starting from an empty baseline", "error", err)
		return New()
	}
	if loaded == nil {
		s.logger.Debug("no snapshot stored yet")
		return New()
	}
	return loaded
}

func (s *Store) Save(snap Snapshot) error {
	if err := s.backend.Save(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug("snapshot saved", "notes", len(snap))
	return nil
}

func (s *Store) Close() error {
	if closer, ok := s.backend.(backendCloser); ok {
		return closer.Close()
	}
	return nil
}
