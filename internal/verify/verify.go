// Package verify runs one check: load the local snapshot, list every note's
// metadata from the remote store, report differences and, once the user
// confirms, persist the new snapshot.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agentworkforce/notecheck/internal/notestore"
	"github.com/agentworkforce/notecheck/internal/reconcile"
	"github.com/agentworkforce/notecheck/internal/report"
	"github.com/agentworkforce/notecheck/internal/snapshot"
)

type Options struct {
	Store     notestore.NoteStore
	Snapshots *snapshot.Store
	In        io.Reader
	Out       io.Writer
	Logger    *slog.Logger
	PageSize  int
	Filter    notestore.NoteFilter
	Location  *time.Location
	// AssumeYes saves without prompting.
	AssumeYes bool
	// SyncState fetches and logs the account's sync state before listing.
	// A failure of that call aborts the run.
	SyncState bool
}

type Outcome struct {
	Result    reconcile.Result
	Confirmed bool
	Saved     bool
	SaveErr   error
}

type Verifier struct {
	store     notestore.NoteStore
	snapshots *snapshot.Store
	printer   *report.Printer
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
	fetch     notestore.FetchOptions
	location  *time.Location
	assumeYes bool
	syncState bool
}

func New(opts Options) (*Verifier, error) {
	if opts.Store == nil {
		return nil, errors.New("verify: note store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	snapshots := opts.Snapshots
	if snapshots == nil {
		snapshots = snapshot.NewStore(nil, logger)
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	return &Verifier{
		store:     opts.Store,
		snapshots: snapshots,
		printer:   report.NewPrinter(out),
		in:        opts.In,
		out:       out,
		logger:    logger,
		fetch:     notestore.FetchOptions{PageSize: opts.PageSize, Filter: opts.Filter},
		location:  location,
		assumeYes: opts.AssumeYes,
		syncState: opts.SyncState,
	}, nil
}

// Run performs one verification pass. Remote failures abort before anything
// is saved. A failed save is printed and recorded on the Outcome, not returned.
func (v *Verifier) Run(ctx context.Context) (Outcome, error) {
	var outcome Outcome
	prior := v.snapshots.Load()
	v.logger.Debug("snapshot loaded", "notes", len(prior))

	if v.syncState {
		state, err := v.store.GetSyncState(ctx)
		if err != nil {
			return outcome, fmt.Errorf("get sync state: %w", err)
		}
		v.logger.Info("sync state",
			"update_count", state.UpdateCount,
			"uploaded", state.Uploaded,
			"server_time", time.UnixMilli(state.CurrentTime).In(v.location).Format(reconcile.TimestampLayout),
		)
	}

	rec := reconcile.New(prior,
		reconcile.WithEventHandler(v.printer.Event),
		reconcile.WithLocation(v.location),
		reconcile.WithLogger(v.logger),
	)
	for page, err := range notestore.AllNotes(ctx, v.store, v.fetch) {
		if err != nil {
			return outcome, err
		}
		v.logger.Debug("page received", "offset", page.Offset, "notes", len(page.Notes), "total", page.TotalNotes)
		rec.Apply(page.Notes)
	}
	outcome.Result = rec.Finish()
	v.printer.Summary(outcome.Result.OldCount, outcome.Result.NewCount)

	if v.assumeYes {
		outcome.Confirmed = true
	} else {
		confirmed, err := report.Confirm(v.in, v.out, report.SavePrompt)
		if err != nil {
			return outcome, err
		}
		outcome.Confirmed = confirmed
	}
	if !outcome.Confirmed {
		v.logger.Debug("snapshot not saved")
		return outcome, nil
	}

	if err := v.snapshots.Save(outcome.Result.Snapshot); err != nil {
		outcome.SaveErr = err
		v.printer.SaveFailed(err)
		v.logger.Error("save snapshot failed", "error", err)
		return outcome, nil
	}
	outcome.Saved = true
	v.printer.Saved()
	return outcome, nil
}
