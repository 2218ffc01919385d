// Package snapshot persists the per-note metadata baseline that each
// verification run diffs against.
package snapshot

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrVersionMismatch = errors.New("snapshot format version mismatch")
)

// NoteRecord is the last known metadata for one note.
type NoteRecord struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	ContentLength        int64  `json:"contentLength"`
	LastSeenModifiedTime string `json:"lastSeenModifiedTime"`
	// LargestAttachmentSize is 0 when the note has no attachment. Records
	// written before the field existed load as 0.
	LargestAttachmentSize int64 `json:"largestAttachmentSize,omitempty"`
}

// Snapshot maps note ID to its record. Every key equals its record's ID.
type Snapshot map[string]*NoteRecord

func New() Snapshot {
	return Snapshot{}
}

// Validate checks the key/ID invariant.
func (s Snapshot) Validate() error {
	for id, record := range s {
		if record == nil {
			return fmt.Errorf("%w: nil record for %q", ErrInvalidSnapshot, id)
		}
		if id == "" || record.ID != id {
			return fmt.Errorf("%w: key %q holds record %q", ErrInvalidSnapshot, id, record.ID)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, record := range s {
		if record == nil {
			continue
		}
		cp := *record
		out[id] = &cp
	}
	return out
}

// IDs returns the keys in sorted order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
