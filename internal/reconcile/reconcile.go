// Package reconcile diffs one listing pass of remote note metadata against
// the previous snapshot and produces the next snapshot plus change events.
package reconcile

import (
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/agentworkforce/notecheck/internal/notestore"
	"github.com/agentworkforce/notecheck/internal/snapshot"
)

// TimestampLayout is the format of NoteRecord.LastSeenModifiedTime.
const TimestampLayout = "2006-01-02 15:04:05.000"

type EventKind string

const (
	Added            EventKind = "added"
	Removed          EventKind = "removed"
	ContentShrunk    EventKind = "content_shrunk"
	AttachmentShrunk EventKind = "attachment_shrunk"
	Renamed          EventKind = "renamed"
)

// Event describes one detected change. Before and After hold sizes for the
// shrink kinds and are zero otherwise. OldTitle is set only for Renamed.
type Event struct {
	Kind     EventKind
	NoteID   string
	Title    string
	OldTitle string
	Before   int64
	After    int64
}

// Delta is the number of bytes lost for shrink events.
func (e Event) Delta() int64 {
	return e.Before - e.After
}

type Result struct {
	Snapshot snapshot.Snapshot
	Events   []Event
	Added    []string
	Removed  []string
	Shrunk   []string
	OldCount int
	NewCount int
}

type Option func(*Reconciler)

// WithEventHandler streams each event to fn as soon as it is discovered.
func WithEventHandler(fn func(Event)) Option {
	return func(r *Reconciler) {
		r.handler = fn
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.location = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type Reconciler struct {
	snap      snapshot.Snapshot
	unmatched map[string]struct{}
	handler   func(Event)
	location  *time.Location
	logger    *slog.Logger
	result    Result
	finished  bool
}

// New takes ownership of prior and mutates it as notes are applied. A nil
// prior is treated as empty.
func New(prior snapshot.Snapshot, opts ...Option) *Reconciler {
	if prior == nil {
		prior = snapshot.New()
	}
	r := &Reconciler{
		snap:      prior,
		unmatched: make(map[string]struct{}, len(prior)),
		location:  time.Local,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for id := range prior {
		r.unmatched[id] = struct{}{}
	}
	r.result.OldCount = len(prior)
	return r
}

// Apply processes one page of notes in arrival order.
func (r *Reconciler) Apply(notes []notestore.NoteMetadata) {
	for _, note := range notes {
		r.apply(note)
	}
}

func (r *Reconciler) apply(note notestore.NoteMetadata) {
	r.result.NewCount++
	modified := time.UnixMilli(note.Updated).In(r.location).Format(TimestampLayout)

	cached, ok := r.snap[note.GUID]
	if !ok {
		r.snap[note.GUID] = &snapshot.NoteRecord{
			ID:                    note.GUID,
			Title:                 note.Title,
			ContentLength:         note.ContentLength,
			LastSeenModifiedTime:  modified,
			LargestAttachmentSize: note.LargestResourceSize,
		}
		r.result.Added = append(r.result.Added, note.GUID)
		r.emit(Event{Kind: Added, NoteID: note.GUID, Title: note.Title})
		return
	}
	delete(r.unmatched, note.GUID)

	shrunk := false
	if note.ContentLength < cached.ContentLength {
		shrunk = true
		r.emit(Event{
			Kind:   ContentShrunk,
			NoteID: note.GUID,
			Title:  note.Title,
			Before: cached.ContentLength,
			After:  note.ContentLength,
		})
	}
	if note.LargestResourceSize < cached.LargestAttachmentSize {
		shrunk = true
		r.emit(Event{
			Kind:   AttachmentShrunk,
			NoteID: note.GUID,
			Title:  note.Title,
			Before: cached.LargestAttachmentSize,
			After:  note.LargestResourceSize,
		})
	}
	renamed := note.Title != cached.Title
	if renamed {
		r.emit(Event{Kind: Renamed, NoteID: note.GUID, Title: note.Title, OldTitle: cached.Title})
	}
	if shrunk {
		r.result.Shrunk = append(r.result.Shrunk, note.GUID)
	}
	if shrunk || renamed {
		r.logger.Debug("note changed",
			"id", note.GUID,
			"usn", note.UpdateSequenceNum,
			"largest_resource_mime", note.LargestResourceMime,
		)
	}

	cached.Title = note.Title
	cached.ContentLength = note.ContentLength
	cached.LastSeenModifiedTime = modified
	cached.LargestAttachmentSize = note.LargestResourceSize
}

// Finish concludes the pass. Every prior note not seen by Apply is reported
// as removed, in ID order, and dropped from the snapshot. Calling Finish more
// than once returns the same result.
func (r *Reconciler) Finish() Result {
	if r.finished {
		return r.result
	}
	r.finished = true
	ids := make([]string, 0, len(r.unmatched))
	for id := range r.unmatched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		title := r.snap[id].Title
		delete(r.snap, id)
		r.result.Removed = append(r.result.Removed, id)
		r.emit(Event{Kind: Removed, NoteID: id, Title: title})
	}
	r.unmatched = nil
	r.result.Snapshot = r.snap
	return r.result
}

func (r *Reconciler) emit(e Event) {
	r.result.Events = append(r.result.Events, e)
	if r.handler != nil {
		r.handler(e)
	}
}

// Reconcile runs a complete pass over notes in one call.
func Reconcile(prior snapshot.Snapshot, notes []notestore.NoteMetadata, opts ...Option) Result {
	r := New(prior, opts...)
	r.Apply(notes)
	return r.Finish()
}
