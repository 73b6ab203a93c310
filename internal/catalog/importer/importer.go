// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package importer accumulates resolved candidates and commits them as one
batch, with retry/backoff and partial-failure reconciliation.

The [Controller] is an explicit state machine owned by the caller:

	Idle → Validating → Submitting → (Success | PartialFailure | Retrying | Failed)

All multi-step state (queue contents, attempt counter) lives in this object,
never on the server: the server side of an import is a single stateless
bulk-insert request. Retrying the same batch is safe because the storage
layer skips duplicate rows instead of re-inserting them.
*/
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfmark/shelfmark/internal/catalog/resolver"
	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
)

// State identifies where the controller is in its commit lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateValidating     State = "validating"
	StateSubmitting     State = "submitting"
	StateSuccess        State = "success"
	StatePartialFailure State = "partial_failure"
	StateRetrying       State = "retrying"
	StateFailed         State = "failed"
)

// FailureKind classifies a failed commit for the caller's retry decision.
type FailureKind string

const (
	// FailureDuplicate: nothing was created and the storage layer reported a
	// uniqueness conflict. Retrying cannot help.
	FailureDuplicate FailureKind = "duplicate"
	// FailureNetwork: the submit call timed out or never reached storage.
	FailureNetwork FailureKind = "network"
	// FailurePartial: some rows were created before the batch failed.
	FailurePartial FailureKind = "partial"
	// FailureUnknown: anything else. Treated as retryable.
	FailureUnknown FailureKind = "unknown"
)

// Retry policy: exponential backoff starting at one second, doubling per
// attempt, capped at three automatic attempts.
const (
	maxAttempts    = 3
	initialBackoff = 1000 * time.Millisecond
)

// Submitter is the single outbound dependency of the controller: one bulk
// insert scoped to the submitting owner, reporting per-row outcomes.
type Submitter interface {
	Submit(context context.Context, batch []resolver.Candidate) (*book.BulkResult, error)
}

// CommitResult tallies the outcome of a commit across all its attempts.
//
// Created + Skipped + Failures always equals BatchSize.
type CommitResult struct {
	BatchSize int         `json:"batch_size"`
	Created   int         `json:"created"`
	Skipped   int         `json:"skipped"`
	Failures  int         `json:"failures"`
	Attempts  int         `json:"attempts"`
	Kind      FailureKind `json:"failure_kind,omitempty"`
}

// Controller is the client-held import queue.
//
// # Concurrency
//
// All methods are safe for concurrent use; the commit path holds the lock
// for its full duration, so a second Commit observes Submitting/Retrying
// and is rejected rather than interleaved.
type Controller struct {
	mu        sync.Mutex
	submitter Submitter
	logger    *slog.Logger

	// sleep is injectable so tests run backoff without wall-clock delays.
	sleep func(context context.Context, d time.Duration) error

	queue      []resolver.Candidate
	state      State
	attempts   int
	lastResult *CommitResult
}

// NewController constructs an idle [Controller].
func NewController(submitter Submitter, logger *slog.Logger) *Controller {
	return &Controller{
		submitter: submitter,
		logger:    logger,
		sleep:     sleepContext,
		state:     StateIdle,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// # Queue Management

// Add appends a candidate to the working set.
func (controller *Controller) Add(candidate resolver.Candidate) error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state == StateSubmitting || controller.state == StateRetrying {
		return apperr.Conflict("A commit is in progress; wait for it to finish")
	}

	controller.queue = append(controller.queue, candidate)
	controller.state = StateIdle
	return nil
}

// Remove deletes the candidate at index from the working set.
func (controller *Controller) Remove(index int) error {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state == StateSubmitting || controller.state == StateRetrying {
		return apperr.Conflict("A commit is in progress; wait for it to finish")
	}
	if index < 0 || index >= len(controller.queue) {
		return apperr.ValidationError("No queue entry at that index")
	}

	controller.queue = append(controller.queue[:index], controller.queue[index+1:]...)
	return nil
}

// DropSucceeded removes every queued candidate whose ISBN-13 is in isbn13s,
// so a retry re-submits only the remainder the caller believes failed.
func (controller *Controller) DropSucceeded(isbn13s ...string) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	drop := make(map[string]bool, len(isbn13s))
	for _, id := range isbn13s {
		drop[id] = true
	}

	kept := controller.queue[:0]
	for _, c := range controller.queue {
		if c.ISBN13 != nil && drop[*c.ISBN13] {
			continue
		}
		kept = append(kept, c)
	}
	controller.queue = kept
}

// Queue returns a copy of the working set.
func (controller *Controller) Queue() []resolver.Candidate {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	out := make([]resolver.Candidate, len(controller.queue))
	copy(out, controller.queue)
	return out
}

// State returns the controller's current lifecycle state.
func (controller *Controller) State() State {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.state
}

// LastResult returns the tallies of the most recent commit, or nil.
func (controller *Controller) LastResult() *CommitResult {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.lastResult
}

// # Commit Path

/*
Commit validates the working set and submits it, retrying transient failures
with exponential backoff up to the attempt cap.

Description: Validation failures never reach the network. A full success
clears the queue. After the automatic attempts are exhausted the controller
parks in Failed and only [Controller.ManualRetry] (or dropping entries and
re-committing) continues. Cancelling the context stops the retry loop and
discards any late outcome.

Returns:
  - *CommitResult: Tallies for the batch, also retained in [Controller.LastResult]
  - error: Validation, classified submit failures, or cancellation
*/
func (controller *Controller) Commit(context context.Context) (*CommitResult, error) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state == StateSubmitting || controller.state == StateRetrying {
		return nil, apperr.Conflict("A commit is already in progress")
	}

	controller.attempts = 0
	return controller.commitLocked(context)
}

// ManualRetry re-submits the current working set after the automatic
// attempt cap has been reached.
func (controller *Controller) ManualRetry(context context.Context) (*CommitResult, error) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.state != StateFailed && controller.state != StatePartialFailure {
		return nil, apperr.Conflict("Manual retry is only available after a failed commit")
	}

	controller.attempts = 0
	return controller.commitLocked(context)
}

// commitLocked runs the validate/submit/retry loop. Caller holds the lock.
func (controller *Controller) commitLocked(ctx context.Context) (*CommitResult, error) {
	controller.state = StateValidating

	if len(controller.queue) == 0 {
		controller.state = StateIdle
		return nil, apperr.ValidationError("empty queue")
	}

	if invalid := countInvalid(controller.queue); invalid > 0 {
		controller.state = StateIdle
		return nil, apperr.ValidationError(
			fmt.Sprintf("%d book(s) missing required information", invalid))
	}

	batch := make([]resolver.Candidate, len(controller.queue))
	copy(batch, controller.queue)

	backoff := initialBackoff
	for {
		controller.attempts++
		controller.state = StateSubmitting

		result, err := controller.submitter.Submit(ctx, batch)

		// A result arriving after cancellation is discarded: the caller has
		// moved on and must not observe a state change it no longer expects.
		if ctx.Err() != nil {
			controller.state = StateIdle
			return nil, apperr.Timeout("Import cancelled", ctx.Err())
		}

		if err == nil {
			commit := &CommitResult{
				BatchSize: len(batch),
				Created:   result.Created,
				Skipped:   result.Skipped,
				Failures:  len(batch) - result.Created - result.Skipped,
				Attempts:  controller.attempts,
			}
			controller.lastResult = commit
			controller.queue = nil
			controller.state = StateSuccess

			controller.logger.Info("import_committed",
				slog.Int("batch_size", commit.BatchSize),
				slog.Int("created", commit.Created),
				slog.Int("skipped", commit.Skipped),
				slog.Int("attempts", commit.Attempts),
			)

			return commit, nil
		}

		kind, retryable := classify(err, result, len(batch))
		commit := &CommitResult{
			BatchSize: len(batch),
			Attempts:  controller.attempts,
			Kind:      kind,
		}
		if result != nil {
			commit.Created = result.Created
			commit.Skipped = result.Skipped
			commit.Failures = len(batch) - result.Created - result.Skipped
		} else {
			commit.Failures = len(batch)
		}
		controller.lastResult = commit

		controller.logger.Warn("import_attempt_failed",
			slog.Int("attempt", controller.attempts),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)

		if !retryable {
			controller.state = StateFailed
			return commit, err
		}

		if controller.attempts >= maxAttempts {
			if kind == FailurePartial {
				controller.state = StatePartialFailure
			} else {
				controller.state = StateFailed
			}
			return commit, err
		}

		controller.state = StateRetrying
		if sleepErr := controller.sleep(ctx, backoff); sleepErr != nil {
			controller.state = StateIdle
			return nil, apperr.Timeout("Import cancelled during backoff", sleepErr)
		}
		backoff *= 2
	}
}

// countInvalid counts queue entries unusable for commit: a committable
// candidate needs at minimum a title and an ISBN-13.
func countInvalid(queue []resolver.Candidate) int {
	invalid := 0
	for _, c := range queue {
		if c.Title == "" || c.ISBN13 == nil || *c.ISBN13 == "" {
			invalid++
		}
	}
	return invalid
}

// classify maps a failed submit to a [FailureKind] and retryability.
//
// Classification runs on error codes, never on message text.
func classify(err error, result *book.BulkResult, batchSize int) (FailureKind, bool) {
	created := 0
	if result != nil {
		created = result.Created
	}

	switch apperr.Code(err) {
	case apperr.CodeConflict:
		if created == 0 {
			return FailureDuplicate, false
		}
		return FailurePartial, true
	case apperr.CodeTimeout, apperr.CodeNetwork:
		return FailureNetwork, true
	case apperr.CodeValidation, apperr.CodeUnauthorized, apperr.CodeForbidden:
		return FailureDuplicate, false
	}

	if created > 0 && created < batchSize {
		return FailurePartial, true
	}
	return FailureUnknown, true
}
