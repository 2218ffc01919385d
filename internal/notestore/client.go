package notestore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimited        = errors.New("rate limit reached")
	ErrRateLimitExhausted = errors.New("rate limit retries exhausted")
	ErrIncompleteListing  = errors.New("note listing ended before reported total")
)

// RateLimitError is returned when the service rejects a call and names the
// wait required before the next attempt.
type RateLimitError struct {
	Duration time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit reached: retry after %s", e.Duration)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// NoteFilter selects notes. The zero value matches every note in the account.
type NoteFilter struct {
	NotebookGUID string   `json:"notebookGuid,omitempty"`
	TagGUIDs     []string `json:"tagGuids,omitempty"`
	Words        string   `json:"words,omitempty"`
}

type ResultSpec struct {
	IncludeTitle               bool `json:"includeTitle"`
	IncludeContentLength       bool `json:"includeContentLength"`
	IncludeUpdated             bool `json:"includeUpdated"`
	IncludeUpdateSequenceNum   bool `json:"includeUpdateSequenceNum"`
	IncludeLargestResourceMime bool `json:"includeLargestResourceMime"`
	IncludeLargestResourceSize bool `json:"includeLargestResourceSize"`
	IncludeAttributes          bool `json:"includeAttributes"`
}

// DefaultResultSpec requests every field the verifier compares or logs.
func DefaultResultSpec() ResultSpec {
	return ResultSpec{
		IncludeTitle:               true,
		IncludeContentLength:       true,
		IncludeUpdated:             true,
		IncludeUpdateSequenceNum:   true,
		IncludeLargestResourceMime: true,
		IncludeLargestResourceSize: true,
		IncludeAttributes:          true,
	}
}

type NotesMetadataRequest struct {
	Filter     NoteFilter `json:"filter"`
	Offset     int        `json:"offset"`
	MaxNotes   int        `json:"maxNotes"`
	ResultSpec ResultSpec `json:"resultSpec"`
}

type NoteAttributes struct {
	Author      string `json:"author,omitempty"`
	Source      string `json:"source,omitempty"`
	SourceURL   string `json:"sourceURL,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

// NoteMetadata is one entry of a listing page. It never carries the note body.
type NoteMetadata struct {
	GUID                string          `json:"guid"`
	Title               string          `json:"title"`
	ContentLength       int64           `json:"contentLength"`
	Updated             int64           `json:"updated"`
	UpdateSequenceNum   int64           `json:"updateSequenceNum,omitempty"`
	LargestResourceMime string          `json:"largestResourceMime,omitempty"`
	LargestResourceSize int64           `json:"largestResourceSize,omitempty"`
	Attributes          *NoteAttributes `json:"attributes,omitempty"`
}

type NotesMetadataList struct {
	StartIndex int            `json:"startIndex"`
	TotalNotes int            `json:"totalNotes"`
	Notes      []NoteMetadata `json:"notes"`
}

type SyncState struct {
	CurrentTime    int64 `json:"currentTime"`
	FullSyncBefore int64 `json:"fullSyncBefore"`
	UpdateCount    int64 `json:"updateCount"`
	Uploaded       int64 `json:"uploaded"`
}

// NoteStore lists every remote operation the verifier performs. Wrappers such
// as RateLimited implement the full set so callers never see the raw client.
type NoteStore interface {
	FindNotesMetadata(ctx context.Context, req NotesMetadataRequest) (NotesMetadataList, error)
	GetSyncState(ctx context.Context) (SyncState, error)
}
