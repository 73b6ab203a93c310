// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package book

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/library/access"
)

// Book represents a catalogued title in a user's personal library.
//
// ISBN-13 is the natural de-duplication key: optional for manually entered
// drafts, but unique per owner once present. Visibility gates who may see
// the row (see the access package).
type Book struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"owner_id"`
	Title            string            `json:"title"`
	LongTitle        *string           `json:"long_title"`
	Authors          []string          `json:"authors"`
	ISBN10           *string           `json:"isbn10"`
	ISBN13           *string           `json:"isbn13"`
	Publisher        *string           `json:"publisher"`
	Synopsis         *string           `json:"synopsis"`
	PageCount        *int              `json:"page_count"`
	PublishedOn      *string           `json:"published_on"`
	Subjects         []string          `json:"subjects"`
	Binding          *string           `json:"binding"`
	ImageURL         *string           `json:"image_url"`
	OriginalImageURL *string           `json:"original_image_url"`
	Visibility       access.Visibility `json:"visibility"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        *time.Time        `json:"-"` // soft-delete tracker
}

// Filter holds the parameters for a paginated book search.
type Filter struct {
	Query    string   // Matched against title and authors
	OwnerID  string   // Restrict to a single owner's shelf
	Subjects []string // Match books tagged with any of these subjects
}

// BulkResult reports the outcome of a batched insert.
//
// Created + Skipped always equals the number of rows the storage layer
// actually processed; rows it never reached are the caller's to count.
type BulkResult struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// Global field names for validation
const (
	FieldTitle      = "title"
	FieldAuthors    = "authors"
	FieldISBN10     = "isbn10"
	FieldISBN13     = "isbn13"
	FieldPageCount  = "page_count"
	FieldImageURL   = "image_url"
	FieldVisibility = "visibility"
)
