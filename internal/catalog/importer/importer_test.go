// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package importer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/catalog/resolver"
	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/pkg/pointer"
)

// scriptedSubmitter replays a fixed sequence of submit outcomes.
type scriptedSubmitter struct {
	calls    int
	outcomes []outcome
	batches  [][]resolver.Candidate
}

type outcome struct {
	result *book.BulkResult
	err    error
}

func (s *scriptedSubmitter) Submit(_ context.Context, batch []resolver.Candidate) (*book.BulkResult, error) {
	s.batches = append(s.batches, batch)
	o := s.outcomes[s.calls]
	if s.calls < len(s.outcomes)-1 {
		s.calls++
	}
	return o.result, o.err
}

func candidate(title, isbn13 string) resolver.Candidate {
	c := resolver.Candidate{Title: title}
	if isbn13 != "" {
		c.ISBN13 = pointer.To(isbn13)
	}
	return c
}

// newTestController wires a controller with instant backoff.
func newTestController(submitter Submitter) (*Controller, *[]time.Duration) {
	controller := NewController(submitter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var slept []time.Duration
	controller.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return controller, &slept
}

/*
TestCommitValidation verifies that invalid batches never reach the network.
*/
func TestCommitValidation(t *testing.T) {
	t.Run("empty_queue", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{{result: &book.BulkResult{}}}}
		controller, _ := newTestController(submitter)

		_, err := controller.Commit(context.Background())
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
		assert.Equal(t, "empty queue", err.Error())
		assert.Empty(t, submitter.batches, "validation failures must not submit")
		assert.Equal(t, StateIdle, controller.State())
	})

	t.Run("missing_required_information", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{{result: &book.BulkResult{}}}}
		controller, _ := newTestController(submitter)

		require.NoError(t, controller.Add(candidate("Complete", "9780000000001")))
		require.NoError(t, controller.Add(candidate("", "9780000000002"))) // no title
		require.NoError(t, controller.Add(candidate("No Identifier", ""))) // no ISBN-13
		require.NoError(t, controller.Add(candidate("Also Fine", "9780000000003")))

		_, err := controller.Commit(context.Background())
		require.Error(t, err)
		assert.Equal(t, "2 book(s) missing required information", err.Error())
		assert.Empty(t, submitter.batches)
		assert.Len(t, controller.Queue(), 4, "the queue is kept for the caller to fix")
	})
}

/*
TestCommitSuccess covers the happy path and the created+skipped tally.
*/
func TestCommitSuccess(t *testing.T) {
	submitter := &scriptedSubmitter{outcomes: []outcome{
		{result: &book.BulkResult{Requested: 3, Created: 2, Skipped: 1}},
	}}
	controller, slept := newTestController(submitter)

	require.NoError(t, controller.Add(candidate("A", "9780000000001")))
	require.NoError(t, controller.Add(candidate("B", "9780000000002")))
	require.NoError(t, controller.Add(candidate("C", "9780000000003")))

	result, err := controller.Commit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.BatchSize)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failures)
	assert.Equal(t, result.BatchSize, result.Created+result.Skipped+result.Failures)
	assert.Equal(t, 1, result.Attempts)

	assert.Equal(t, StateSuccess, controller.State())
	assert.Empty(t, controller.Queue(), "full success clears the working set")
	assert.Empty(t, *slept)
}

/*
TestRetryBackoff verifies the 1000ms-doubling schedule and the attempt cap.
*/
func TestRetryBackoff(t *testing.T) {
	t.Run("recovers_within_cap", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{
			{err: apperr.Unavailable("down", nil)},
			{err: apperr.Timeout("slow", nil)},
			{result: &book.BulkResult{Requested: 1, Created: 1}},
		}}
		controller, slept := newTestController(submitter)
		require.NoError(t, controller.Add(candidate("A", "9780000000001")))

		result, err := controller.Commit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, result.Attempts)
		assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, *slept)
		assert.Equal(t, StateSuccess, controller.State())
	})

	t.Run("parks_failed_after_three_attempts", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{
			{err: apperr.Unavailable("down", nil)},
		}}
		controller, slept := newTestController(submitter)
		require.NoError(t, controller.Add(candidate("A", "9780000000001")))

		result, err := controller.Commit(context.Background())
		require.Error(t, err)
		assert.Equal(t, 3, result.Attempts)
		assert.Equal(t, FailureNetwork, result.Kind)
		assert.Len(t, *slept, 2, "no backoff after the final attempt")
		assert.Equal(t, StateFailed, controller.State())
		assert.Len(t, controller.Queue(), 1, "the batch is kept for manual retry")

		// Automatic retry is over; a fresh Commit is rejected until the
		// caller acts, but ManualRetry re-runs the same batch.
		submitter.outcomes = []outcome{{result: &book.BulkResult{Requested: 1, Created: 1}}}
		submitter.calls = 0

		retried, err := controller.ManualRetry(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, retried.Created)
		assert.Equal(t, StateSuccess, controller.State())
	})
}

/*
TestFailureClassification maps submit errors onto retry decisions.
*/
func TestFailureClassification(t *testing.T) {
	t.Run("pure_duplicate_is_terminal", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{
			{result: &book.BulkResult{Requested: 2}, err: apperr.Conflict("unique violation")},
		}}
		controller, slept := newTestController(submitter)
		require.NoError(t, controller.Add(candidate("A", "9780000000001")))
		require.NoError(t, controller.Add(candidate("B", "9780000000002")))

		result, err := controller.Commit(context.Background())
		require.Error(t, err)
		assert.Equal(t, FailureDuplicate, result.Kind)
		assert.Equal(t, 1, result.Attempts, "terminal failures are never retried")
		assert.Empty(t, *slept)
		assert.Equal(t, StateFailed, controller.State())
	})

	t.Run("partial_is_retryable_and_tallied", func(t *testing.T) {
		submitter := &scriptedSubmitter{outcomes: []outcome{
			{result: &book.BulkResult{Requested: 4, Created: 2, Skipped: 1}, err: apperr.Internal(assert.AnError)},
		}}
		controller, _ := newTestController(submitter)
		for i, isbn := range []string{"9780000000001", "9780000000002", "9780000000003", "9780000000004"} {
			require.NoError(t, controller.Add(candidate(string(rune('A'+i)), isbn)))
		}

		result, err := controller.Commit(context.Background())
		require.Error(t, err)
		assert.Equal(t, FailurePartial, result.Kind)
		assert.Equal(t, 4, result.BatchSize)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Failures)
		assert.Equal(t, result.BatchSize, result.Created+result.Skipped+result.Failures)
		assert.Equal(t, StatePartialFailure, controller.State())
	})
}

/*
TestIdempotentRecommit verifies that re-submitting a committed batch yields
zero creations and all skips, matching the server-side duplicate handling.
*/
func TestIdempotentRecommit(t *testing.T) {
	submitter := &scriptedSubmitter{outcomes: []outcome{
		{result: &book.BulkResult{Requested: 2, Created: 2}},
		{result: &book.BulkResult{Requested: 2, Created: 0, Skipped: 2}},
	}}
	controller, _ := newTestController(submitter)

	batch := []resolver.Candidate{
		candidate("A", "9780000000001"),
		candidate("B", "9780000000002"),
	}
	for _, c := range batch {
		require.NoError(t, controller.Add(c))
	}

	first, err := controller.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	// Same batch again, as a client replay would.
	for _, c := range batch {
		require.NoError(t, controller.Add(c))
	}
	second, err := controller.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Skipped)
}

/*
TestCancellationDiscardsLateResult verifies a cancelled commit never applies
a late outcome.
*/
func TestCancellationDiscardsLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	submitter := &cancellingSubmitter{cancel: cancel}
	controller, _ := newTestController(submitter)
	require.NoError(t, controller.Add(candidate("A", "9780000000001")))

	_, err := controller.Commit(ctx)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTimeout, apperr.Code(err))
	assert.Equal(t, StateIdle, controller.State())
	assert.Len(t, controller.Queue(), 1, "the queue survives a cancelled commit")
	assert.Nil(t, controller.LastResult(), "a late success is discarded, not recorded")
}

// cancellingSubmitter cancels the context mid-flight, then "succeeds" —
// simulating a response landing after the caller has moved on.
type cancellingSubmitter struct {
	cancel context.CancelFunc
}

func (s *cancellingSubmitter) Submit(_ context.Context, batch []resolver.Candidate) (*book.BulkResult, error) {
	s.cancel()
	return &book.BulkResult{Requested: len(batch), Created: len(batch)}, nil
}

/*
TestDropSucceeded verifies retrying only the remainder after a partial failure.
*/
func TestDropSucceeded(t *testing.T) {
	partialFailure := outcome{
		result: &book.BulkResult{Requested: 3, Created: 2},
		err:    apperr.Internal(assert.AnError),
	}
	submitter := &scriptedSubmitter{outcomes: []outcome{
		partialFailure, partialFailure, partialFailure, // exhausts automatic retries
		{result: &book.BulkResult{Requested: 1, Created: 1}},
	}}
	controller, _ := newTestController(submitter)

	require.NoError(t, controller.Add(candidate("A", "9780000000001")))
	require.NoError(t, controller.Add(candidate("B", "9780000000002")))
	require.NoError(t, controller.Add(candidate("C", "9780000000003")))

	_, err := controller.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatePartialFailure, controller.State())

	// The caller decides A and B made it in, drops them, retries the rest.
	controller.DropSucceeded("9780000000001", "9780000000002")
	require.Len(t, controller.Queue(), 1)

	result, err := controller.ManualRetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	require.Len(t, submitter.batches, 4)
	assert.Len(t, submitter.batches[3], 1, "retry submits only the remainder")
}
