package verify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworkforce/notecheck/internal/notestore"
	"github.com/agentworkforce/notecheck/internal/snapshot"
)

type fakeStore struct {
	notes     []notestore.NoteMetadata
	findErr   error
	syncErr   error
	findCalls int
	syncCalls int
}

func (s *fakeStore) FindNotesMetadata(_ context.Context, req notestore.NotesMetadataRequest) (notestore.NotesMetadataList, error) {
	s.findCalls++
	if s.findErr != nil {
		return notestore.NotesMetadataList{}, s.findErr
	}
	end := min(req.Offset+req.MaxNotes, len(s.notes))
	start := min(req.Offset, end)
	return notestore.NotesMetadataList{
		StartIndex: req.Offset,
		TotalNotes: len(s.notes),
		Notes:      s.notes[start:end],
	}, nil
}

func (s *fakeStore) GetSyncState(context.Context) (notestore.SyncState, error) {
	s.syncCalls++
	if s.syncErr != nil {
		return notestore.SyncState{}, s.syncErr
	}
	return notestore.SyncState{CurrentTime: 1700000000000, UpdateCount: 42}, nil
}

type brokenBackend struct{ snapshot.Backend }

func (brokenBackend) Save(snapshot.Snapshot) error { return errors.New("permission denied") }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T, backend snapshot.Backend, snap snapshot.Snapshot) *snapshot.Store {
	t.Helper()
	if snap != nil {
		require.NoError(t, backend.Save(snap))
	}
	return snapshot.NewStore(backend, quietLogger())
}

func TestRunTripPlanScenario(t *testing.T) {
	backend := snapshot.NewMemoryBackend()
	remote := &fakeStore{notes: []notestore.NoteMetadata{
		{GUID: "n1", Title: "Trip Plan", ContentLength: 500, Updated: 1700000000000},
	}}
	var out bytes.Buffer
	v, err := New(Options{
		Store:     remote,
		Snapshots: seededStore(t, backend, nil),
		In:        strings.NewReader("y\n"),
		Out:       &out,
		Logger:    quietLogger(),
		Location:  time.UTC,
		SyncState: true,
	})
	require.NoError(t, err)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Saved)
	assert.Equal(t, "New Note: Trip Plan\n"+
		"Old note count: 0 New note count: 1\n"+
		"Verification complete\n"+
		"To save changes, type (Y): "+
		"Local store updated\n", out.String())
	assert.Equal(t, 1, remote.syncCalls)

	saved, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, snapshot.Snapshot{
		"n1": {ID: "n1", Title: "Trip Plan", ContentLength: 500, LastSeenModifiedTime: "2023-11-14 22:13:20.000"},
	}, saved)

	// second pass with the note trimmed
	remote.notes[0].ContentLength = 300
	out.Reset()
	v, err = New(Options{
		Store:     remote,
		Snapshots: snapshot.NewStore(backend, quietLogger()),
		Out:       &out,
		Logger:    quietLogger(),
		Location:  time.UTC,
		AssumeYes: true,
	})
	require.NoError(t, err)
	outcome, err = v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Saved)
	assert.Contains(t, out.String(), "Note: Trip Plan reduced from 500 to 300 : Reduced by 200 bytes\n")
	assert.NotContains(t, out.String(), "To save changes")
}

func TestRunDeclineLeavesSnapshot(t *testing.T) {
	backend := snapshot.NewMemoryBackend()
	prior := snapshot.Snapshot{
		"n1": {ID: "n1", Title: "Trip Plan", ContentLength: 500},
		"n2": {ID: "n2", Title: "Receipts", ContentLength: 100},
	}
	remote := &fakeStore{notes: []notestore.NoteMetadata{{GUID: "n1", Title: "Trip Plan", ContentLength: 500}}}
	var out bytes.Buffer
	v, err := New(Options{
		Store:     remote,
		Snapshots: seededStore(t, backend, prior.Clone()),
		In:        strings.NewReader("n\n"),
		Out:       &out,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Confirmed)
	assert.False(t, outcome.Saved)
	assert.Contains(t, out.String(), "Removed Note: Receipts\n")
	assert.NotContains(t, out.String(), "Local store updated")

	stored, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, prior, stored)
}

func TestRunSaveFailureIsReported(t *testing.T) {
	remote := &fakeStore{notes: []notestore.NoteMetadata{{GUID: "n1", Title: "Trip Plan", ContentLength: 10}}}
	var out bytes.Buffer
	v, err := New(Options{
		Store:     remote,
		Snapshots: snapshot.NewStore(brokenBackend{snapshot.NewMemoryBackend()}, quietLogger()),
		In:        strings.NewReader("Y\n"),
		Out:       &out,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
	assert.False(t, outcome.Saved)
	require.Error(t, outcome.SaveErr)
	assert.Contains(t, out.String(), "Unexpected error: save snapshot: permission denied\n")
}

func TestRunRemoteErrorAbortsBeforeSave(t *testing.T) {
	backend := snapshot.NewMemoryBackend()
	remote := &fakeStore{findErr: &notestore.HTTPError{StatusCode: 500, Message: "boom"}}
	var out bytes.Buffer
	v, err := New(Options{
		Store:     remote,
		Snapshots: seededStore(t, backend, nil),
		In:        strings.NewReader("y\n"),
		Out:       &out,
		Logger:    quietLogger(),
		AssumeYes: true,
	})
	require.NoError(t, err)

	_, err = v.Run(context.Background())
	var httpErr *notestore.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Empty(t, out.String())

	stored, err := backend.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRunRateLimitedOnceThenSucceeds(t *testing.T) {
	inner := &fakeStore{notes: []notestore.NoteMetadata{{GUID: "n1", Title: "A", ContentLength: 1}}}
	flaky := &rateLimitOnce{NoteStore: inner}
	var waits []time.Duration
	store := notestore.RateLimited(flaky, notestore.RetryOptions{
		Logger: quietLogger(),
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	})
	v, err := New(Options{Store: store, Logger: quietLogger(), AssumeYes: true})
	require.NoError(t, err)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, waits)
	assert.Equal(t, []string{"n1"}, outcome.Result.Added)
	assert.Equal(t, 0, inner.syncCalls)
}

type rateLimitOnce struct {
	notestore.NoteStore
	tripped bool
}

func (s *rateLimitOnce) FindNotesMetadata(ctx context.Context, req notestore.NotesMetadataRequest) (notestore.NotesMetadataList, error) {
	if !s.tripped {
		s.tripped = true
		return notestore.NotesMetadataList{}, &notestore.RateLimitError{Duration: 5 * time.Second}
	}
	return s.NoteStore.FindNotesMetadata(ctx, req)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestRunSyncStateFailureAbortsWhenEnabled(t *testing.T) {
	remote := &fakeStore{
		notes:   []notestore.NoteMetadata{{GUID: "n1", Title: "A", ContentLength: 1}},
		syncErr: &notestore.HTTPError{StatusCode: 503, Message: "maintenance"},
	}
	v, err := New(Options{Store: remote, Logger: quietLogger(), AssumeYes: true, SyncState: true})
	require.NoError(t, err)
	_, err = v.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, remote.findCalls)

	v, err = New(Options{Store: remote, Logger: quietLogger(), AssumeYes: true})
	require.NoError(t, err)
	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, remote.syncCalls)
	assert.Equal(t, []string{"n1"}, outcome.Result.Added)
}
