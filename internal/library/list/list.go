// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package list

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/library/book"
)

// ReadingList is an ordered, shareable collection of books.
//
// # Concurrency
//
// Version is an optimistic concurrency token. Every mutation that touches
// entry positions (add, remove, reorder) increments it inside the same
// transaction, and reorder requests must present the version they read.
// A stale version is rejected so two concurrent reorders can never
// interleave into a corrupted position sequence.
type ReadingList struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description *string           `json:"description"`
	CoverURL    *string           `json:"cover_url"`
	Visibility  access.Visibility `json:"visibility"`
	Version     int64             `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   *time.Time        `json:"-"`
}

// Entry is a single book inside a reading list.
//
// Position is dense and zero-based: after any sequence of mutations, the
// positions of a list's entries are exactly {0, 1, ..., n-1}.
type Entry struct {
	ListID   string     `json:"list_id"`
	BookID   string     `json:"book_id"`
	Position int        `json:"position"`
	Note     *string    `json:"note"`
	AddedAt  time.Time  `json:"added_at"`
	Book     *book.Book `json:"book,omitempty"` // Hydrated on list detail reads.
}

// MaxNoteLength bounds the free-text note on an entry.
const MaxNoteLength = 2000

// Filter holds the parameters for a paginated list query.
type Filter struct {
	OwnerID string // Restrict to a single owner's lists.
}

// Global field names for validation
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCoverURL    = "cover_url"
	FieldVisibility  = "visibility"
	FieldNote        = "note"
	FieldBookIDs     = "book_ids"
	FieldVersion     = "version"
)
