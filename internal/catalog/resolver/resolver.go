// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package resolver turns an ISBN into a validated candidate book record.

It is the read side of the import pipeline: given an identifier, it fetches
the bibliographic record from the external provider, normalizes it into a
book-shaped candidate, flags missing descriptive fields, and checks the
caller's shelf for an existing copy. Candidates are never persisted here —
committing them is the importer's job.

# Failure Modes

  - Malformed identifier → VALIDATION_ERROR, before any network call.
  - Unknown identifier → NOT_FOUND.
  - Provider timeout → TIMEOUT, distinct from NETWORK_ERROR so callers can
    decide whether a retry is worthwhile.
*/
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/pointer"
)

// Candidate is an unsaved, caller-held book value produced by resolution.
//
// IsIncomplete flags records with gaps in the descriptive fields — the data
// is still usable, just flagged for review. IsDuplicate means the resolving
// owner already shelves this ISBN-13; committing it would be skipped.
type Candidate struct {
	Title            string   `json:"title"`
	LongTitle        *string  `json:"long_title"`
	Authors          []string `json:"authors"`
	ISBN10           *string  `json:"isbn10"`
	ISBN13           *string  `json:"isbn13"`
	Publisher        *string  `json:"publisher"`
	Synopsis         *string  `json:"synopsis"`
	PageCount        *int     `json:"page_count"`
	PublishedOn      *string  `json:"published_on"`
	Subjects         []string `json:"subjects"`
	Binding          *string  `json:"binding"`
	ImageURL         *string  `json:"image_url"`
	OriginalImageURL *string  `json:"original_image_url"`

	IsIncomplete  bool     `json:"is_incomplete"`
	IsDuplicate   bool     `json:"is_duplicate"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Resolver orchestrates identifier validation, the provider lookup, and the
// duplicate check against the caller's shelf.
type Resolver struct {
	client         *Client
	bookRepository book.Repository
	logger         *slog.Logger
}

// NewResolver constructs a [Resolver].
func NewResolver(client *Client, bookRepo book.Repository, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:         client,
		bookRepository: bookRepo,
		logger:         logger,
	}
}

/*
Resolve fetches and classifies a candidate record for an identifier.

Description: The identifier is normalized (whitespace and hyphens stripped)
and must be all-numeric, exactly 10 or 13 digits; anything else fails before
a single byte leaves the process. On the happy path exactly one outbound
call is made.

Parameters:
  - context: context.Context
  - ownerID: string (The shelf checked for duplicates)
  - identifier: string (Raw user input, ISBN-10 or ISBN-13)

Returns:
  - *Candidate: The normalized, flagged record
  - error: Validation, not-found, timeout, or provider failures
*/
func (resolver *Resolver) Resolve(context context.Context, ownerID, identifier string) (*Candidate, error) {
	normalized, ok := isbn.Parse(identifier)
	if !ok {
		return nil, apperr.ValidationError(
			"Identifier must be a 10- or 13-digit ISBN",
			apperr.FieldError{Field: "identifier", Message: "Must contain exactly 10 or 13 digits"},
		)
	}

	record, err := resolver.client.FetchRecord(context, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolver_fetch_failed: %w", err)
	}

	candidate := fromProviderRecord(record)
	candidate.MissingFields = missingRequiredFields(record)
	candidate.IsIncomplete = len(candidate.MissingFields) > 0

	if record.ISBN13 != "" {
		if _, err := resolver.bookRepository.FindByISBN13(context, ownerID, record.ISBN13); err == nil {
			candidate.IsDuplicate = true
		} else if apperr.Code(err) != apperr.CodeNotFound {
			return nil, fmt.Errorf("resolver_duplicate_check_failed: %w", err)
		}
	}

	resolver.logger.Info("candidate_resolved",
		slog.String("identifier", normalized),
		slog.Bool("incomplete", candidate.IsIncomplete),
		slog.Bool("duplicate", candidate.IsDuplicate),
	)

	return candidate, nil
}

// fromProviderRecord maps the provider wire format onto a [Candidate],
// converting empty strings to nil pointers.
func fromProviderRecord(record *providerRecord) *Candidate {
	return &Candidate{
		Title:            record.Title,
		LongTitle:        optional(record.LongTitle),
		Authors:          record.Authors,
		ISBN10:           optional(record.ISBN10),
		ISBN13:           optional(record.ISBN13),
		Publisher:        optional(record.Publisher),
		Synopsis:         optional(record.Synopsis),
		PageCount:        optionalInt(record.Pages),
		PublishedOn:      optional(record.PublishedOn),
		Subjects:         record.Subjects,
		Binding:          optional(record.Binding),
		ImageURL:         optional(record.Image),
		OriginalImageURL: optional(record.ImageSource),
	}
}

// missingRequiredFields checks the fixed completeness list and returns the
// names of every required descriptive field that is empty.
func missingRequiredFields(record *providerRecord) []string {
	var missing []string

	check := func(name string, empty bool) {
		if empty {
			missing = append(missing, name)
		}
	}

	check("title", record.Title == "")
	check("long_title", record.LongTitle == "")
	check("authors", len(record.Authors) == 0)
	check("image", record.Image == "")
	check("publisher", record.Publisher == "")
	check("synopsis", record.Synopsis == "")
	check("page_count", record.Pages == 0)
	check("published_on", record.PublishedOn == "")
	check("subjects", len(record.Subjects) == 0)
	check("isbn10", record.ISBN10 == "")
	check("isbn13", record.ISBN13 == "")
	check("binding", record.Binding == "")

	return missing
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return pointer.To(s)
}

func optionalInt(n int) *int {
	if n == 0 {
		return nil
	}
	return pointer.To(n)
}
