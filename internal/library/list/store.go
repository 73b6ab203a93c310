// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package list

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/library/access"
)

// Repository is the storage contract for reading lists and their entries.
//
// # Transactional Guarantees
//
// AddEntry, RemoveEntry, and Reorder each run as one transaction that locks
// the parent list row, mutates entry positions, and increments the list
// version. Position density is therefore preserved under concurrency: two
// mutations of the same list serialize on the row lock, and a reorder
// presenting a stale version fails with a conflict instead of writing.
type Repository interface {
	ListLists(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*ReadingList, int, error)
	GetList(context context.Context, id string) (*ReadingList, error)
	FindBySlug(context context.Context, ownerID, slug string) (*ReadingList, error)
	CreateList(context context.Context, l *ReadingList) error
	UpdateList(context context.Context, l *ReadingList) error
	DeleteList(context context.Context, id string) error

	// ListEntries returns a list's entries ordered by position, each with
	// its book hydrated for nested visibility filtering.
	ListEntries(context context.Context, listID string) ([]*Entry, error)

	AddEntry(context context.Context, listID, bookID string, note *string) (*Entry, error)
	RemoveEntry(context context.Context, listID, bookID string) error
	SetNote(context context.Context, listID, bookID string, note *string) error

	// Reorder rewrites positions 0..n-1 to match orderedBookIDs. The write is
	// rejected with a conflict when expectedVersion is stale, and with a
	// validation error when orderedBookIDs is not a permutation of the
	// list's current membership.
	Reorder(context context.Context, listID string, orderedBookIDs []string, expectedVersion int64) (*ReadingList, error)
}
