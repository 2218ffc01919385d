package notestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sleeper blocks for the given duration or until ctx is done.
type Sleeper func(ctx context.Context, delay time.Duration) error

type RetryOptions struct {
	// MaxRetries bounds the extra attempts after a rate-limit rejection.
	// Values <= 0 select a single retry.
	MaxRetries int
	// MaxWait caps one server-mandated wait. Zero means the server value is used as is.
	MaxWait time.Duration
	Logger  *slog.Logger
	Sleep   Sleeper
}

type rateLimitedStore struct {
	inner      NoteStore
	maxRetries int
	maxWait    time.Duration
	logger     *slog.Logger
	sleep      Sleeper
}

// RateLimited wraps every NoteStore operation so that a rate-limit rejection
// waits the server-specified duration and retries, up to MaxRetries times.
// Once retries are exhausted the last rejection is returned wrapped with
// ErrRateLimitExhausted. Other errors pass through untouched.
func RateLimited(inner NoteStore, opts RetryOptions) NoteStore {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = waitWithContext
	}
	return &rateLimitedStore{
		inner:      inner,
		maxRetries: maxRetries,
		maxWait:    opts.MaxWait,
		logger:     logger,
		sleep:      sleep,
	}
}

func (s *rateLimitedStore) FindNotesMetadata(ctx context.Context, req NotesMetadataRequest) (NotesMetadataList, error) {
	return withRateLimitRetry(ctx, s, "findNotesMetadata", func(ctx context.Context) (NotesMetadataList, error) {
		return s.inner.FindNotesMetadata(ctx, req)
	})
}

func (s *rateLimitedStore) GetSyncState(ctx context.Context) (SyncState, error) {
	return withRateLimitRetry(ctx, s, "getSyncState", s.inner.GetSyncState)
}

func withRateLimitRetry[T any](ctx context.Context, s *rateLimitedStore, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			return result, err
		}
		if attempt >= s.maxRetries {
			return zero, fmt.Errorf("%s: %w: %w", op, ErrRateLimitExhausted, err)
		}
		wait := rateErr.Duration
		if s.maxWait > 0 && wait > s.maxWait {
			wait = s.maxWait
		}
		s.logger.Info("rate limit reached", "operation", op, "wait", wait, "attempt", attempt+1)
		if err := s.sleep(ctx, wait); err != nil {
			return zero, err
		}
		s.logger.Debug("wait over", "operation", op)
	}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
