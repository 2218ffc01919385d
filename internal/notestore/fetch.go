package notestore

import (
	"context"
	"fmt"
	"iter"
)

const DefaultPageSize = 250

type FetchOptions struct {
	PageSize   int
	Filter     NoteFilter
	ResultSpec *ResultSpec
}

type Page struct {
	Offset     int
	TotalNotes int
	Notes      []NoteMetadata
}

// AllNotes pages through the listing from offset 0 until the cumulative count
// reaches the total reported by the first page. Pages are fetched lazily as
// the caller ranges. A remote error is yielded once and ends the sequence.
func AllNotes(ctx context.Context, store NoteStore, opts FetchOptions) iter.Seq2[Page, error] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	spec := DefaultResultSpec()
	if opts.ResultSpec != nil {
		spec = *opts.ResultSpec
	}
	return func(yield func(Page, error) bool) {
		offset := 0
		total := -1
		for total < 0 || offset < total {
			list, err := store.FindNotesMetadata(ctx, NotesMetadataRequest{
				Filter:     opts.Filter,
				Offset:     offset,
				MaxNotes:   pageSize,
				ResultSpec: spec,
			})
			if err != nil {
				yield(Page{Offset: offset, TotalNotes: total}, fmt.Errorf("find notes metadata at offset %d: %w", offset, err))
				return
			}
			if total < 0 {
				total = list.TotalNotes
			}
			if len(list.Notes) == 0 && offset < total {
				yield(Page{Offset: offset, TotalNotes: total}, fmt.Errorf("%w: received %d of %d", ErrIncompleteListing, offset, total))
				return
			}
			page := Page{Offset: offset, TotalNotes: total, Notes: list.Notes}
			offset += len(list.Notes)
			if !yield(page, nil) {
				return
			}
		}
	}
}
