// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package book

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
	"github.com/shelfmark/shelfmark/pkg/isbn"
	"github.com/shelfmark/shelfmark/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business logic for the personal book catalogue.
//
// Every read is scoped through the access package: a book that the caller
// may not see is reported as missing, never as forbidden, so that private
// shelves do not leak existence information.
type Service struct {
	bookRepository Repository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		bookRepository: repo,
		logger:         logger,
	}
}

// # Input Types

// Input defines the caller-supplied fields for creating or replacing a book.
type Input struct {
	Title            string
	LongTitle        *string
	Authors          []string
	ISBN10           *string
	ISBN13           *string
	Publisher        *string
	Synopsis         *string
	PageCount        *int
	PublishedOn      *string
	Subjects         []string
	Binding          *string
	ImageURL         *string
	OriginalImageURL *string
	Visibility       access.Visibility
}

// validateInput applies the shared field rules for create, import, and update.
func validateInput(input *Input) error {
	v := &validate.Validator{}

	v.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 500)

	if input.ISBN10 != nil {
		normalized, ok := isbn.Parse(*input.ISBN10)
		if !ok || len(normalized) != isbn.Length10 {
			v.Custom(FieldISBN10, true, "Must be a 10-digit ISBN")
		} else {
			input.ISBN10 = &normalized
		}
	}

	if input.ISBN13 != nil {
		normalized, ok := isbn.Parse(*input.ISBN13)
		if !ok || !isbn.Is13(normalized) {
			v.Custom(FieldISBN13, true, "Must be a 13-digit ISBN")
		} else {
			input.ISBN13 = &normalized
		}
	}

	if input.PageCount != nil {
		v.Custom(FieldPageCount, *input.PageCount < 0, "Must not be negative")
	}

	if input.ImageURL != nil && *input.ImageURL != "" {
		v.URL(FieldImageURL, *input.ImageURL)
	}

	if input.Visibility == "" {
		input.Visibility = access.VisibilityPrivate
	}
	if !input.Visibility.Valid() {
		v.OneOf(FieldVisibility, string(input.Visibility), access.Values()...)
	}

	return v.Err()
}

// fromInput materializes a [Book] owned by ownerID from validated input.
func fromInput(ownerID string, input Input) *Book {
	return &Book{
		ID:               uuidv7.New(),
		OwnerID:          ownerID,
		Title:            input.Title,
		LongTitle:        input.LongTitle,
		Authors:          input.Authors,
		ISBN10:           input.ISBN10,
		ISBN13:           input.ISBN13,
		Publisher:        input.Publisher,
		Synopsis:         input.Synopsis,
		PageCount:        input.PageCount,
		PublishedOn:      input.PublishedOn,
		Subjects:         input.Subjects,
		Binding:          input.Binding,
		ImageURL:         input.ImageURL,
		OriginalImageURL: input.OriginalImageURL,
		Visibility:       input.Visibility,
	}
}

// # Read Operations

/*
List returns a visibility-scoped page of books.

Parameters:
  - context: context.Context
  - viewer: access.Viewer (Determines which rows are visible)
  - f: Filter
  - limit, offset: int

Returns:
  - []*Book: The visible page of books
  - int: Total visible row count for pagination
  - error: Storage failures
*/
func (service *Service) List(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*Book, int, error) {
	books, total, err := service.bookRepository.ListBooks(context, viewer, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("book_service_list_failed: %w", err)
	}
	return books, total, nil
}

/*
Get retrieves a single book the viewer is allowed to see.

Description: Authorization is resolved after the fetch. A PRIVATE book is
reported to anonymous callers as not found; an authenticated non-owner
receives a forbidden error, since presenting credentials implies the caller
already knows the resource exists.

Parameters:
  - context: context.Context
  - viewer: access.Viewer
  - id: string

Returns:
  - *Book: The book entity
  - error: Not found, forbidden, or storage failures
*/
func (service *Service) Get(context context.Context, viewer access.Viewer, id string) (*Book, error) {
	b, err := service.bookRepository.GetBook(context, id)
	if err != nil {
		return nil, fmt.Errorf("book_service_get_failed: %w", err)
	}

	if !access.CanView(viewer, b.OwnerID, b.Visibility) {
		if !viewer.Authenticated {
			return nil, apperr.NotFound("Book")
		}
		return nil, apperr.Forbidden("You do not have access to this book")
	}

	return b, nil
}

// # Write Operations

/*
Create catalogues a single book on the caller's shelf.

Description: When the input carries an ISBN-13 that the owner has already
catalogued, the call fails with a conflict rather than creating a duplicate.

Parameters:
  - context: context.Context
  - ownerID: string
  - input: Input

Returns:
  - *Book: The created book
  - error: Validation, conflict, or storage failures
*/
func (service *Service) Create(context context.Context, ownerID string, input Input) (*Book, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	b := fromInput(ownerID, input)

	if err := service.bookRepository.CreateBook(context, b); err != nil {
		if apperr.Code(err) == apperr.CodeConflict {
			return nil, apperr.Conflict("This ISBN is already in your library")
		}
		return nil, fmt.Errorf("book_service_create_failed: %w", err)
	}

	service.logger.Info("book_created",
		slog.String("book_id", b.ID),
		slog.String("owner_id", ownerID),
	)

	return b, nil
}

/*
Import catalogues a batch of books in a single transaction.

Description: Rows whose ISBN-13 the owner already holds are skipped, not
failed, which makes re-submitting an interrupted batch safe. Every row must
pass the same validation as a single create; one invalid row rejects the
whole batch so the caller can fix it before anything is written.

Parameters:
  - context: context.Context
  - ownerID: string
  - inputs: []Input

Returns:
  - *BulkResult: Created/skipped tallies
  - error: Validation or storage failures
*/
func (service *Service) Import(context context.Context, ownerID string, inputs []Input) (*BulkResult, error) {
	if len(inputs) == 0 {
		return nil, apperr.ValidationError("Import batch is empty")
	}

	books := make([]*Book, 0, len(inputs))
	for i := range inputs {
		if err := validateInput(&inputs[i]); err != nil {
			return nil, err
		}
		books = append(books, fromInput(ownerID, inputs[i]))
	}

	result, err := service.bookRepository.BulkCreate(context, ownerID, books)
	if err != nil {
		return result, fmt.Errorf("book_service_import_failed: %w", err)
	}

	service.logger.Info("book_batch_imported",
		slog.String("owner_id", ownerID),
		slog.Int("requested", result.Requested),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
	)

	return result, nil
}

/*
Update replaces the mutable fields of a book the caller owns.

Parameters:
  - context: context.Context
  - viewer: access.Viewer
  - id: string
  - input: Input

Returns:
  - *Book: The updated book
  - error: Validation, authorization, or storage failures
*/
func (service *Service) Update(context context.Context, viewer access.Viewer, id string, input Input) (*Book, error) {
	b, err := service.bookRepository.GetBook(context, id)
	if err != nil {
		return nil, fmt.Errorf("book_service_update_lookup_failed: %w", err)
	}

	if !access.CanEdit(viewer, b.OwnerID) {
		if !viewer.Authenticated {
			return nil, apperr.NotFound("Book")
		}
		return nil, apperr.Forbidden("Only the owner can modify this book")
	}

	if err := validateInput(&input); err != nil {
		return nil, err
	}

	b.Title = input.Title
	b.LongTitle = input.LongTitle
	b.Authors = input.Authors
	b.ISBN10 = input.ISBN10
	b.ISBN13 = input.ISBN13
	b.Publisher = input.Publisher
	b.Synopsis = input.Synopsis
	b.PageCount = input.PageCount
	b.PublishedOn = input.PublishedOn
	b.Subjects = input.Subjects
	b.Binding = input.Binding
	b.ImageURL = input.ImageURL
	b.OriginalImageURL = input.OriginalImageURL
	b.Visibility = input.Visibility

	if err := service.bookRepository.UpdateBook(context, b); err != nil {
		if apperr.Code(err) == apperr.CodeConflict {
			return nil, apperr.Conflict("This ISBN is already in your library")
		}
		return nil, fmt.Errorf("book_service_update_failed: %w", err)
	}

	service.logger.Info("book_updated",
		slog.String("book_id", b.ID),
		slog.String("owner_id", b.OwnerID),
	)

	return b, nil
}

/*
Delete soft-deletes a book the caller owns.

Parameters:
  - context: context.Context
  - viewer: access.Viewer
  - id: string

Returns:
  - error: Authorization or storage failures
*/
func (service *Service) Delete(context context.Context, viewer access.Viewer, id string) error {
	b, err := service.bookRepository.GetBook(context, id)
	if err != nil {
		return fmt.Errorf("book_service_delete_lookup_failed: %w", err)
	}

	if !access.CanDelete(viewer, b.OwnerID) {
		if !viewer.Authenticated {
			return apperr.NotFound("Book")
		}
		return apperr.Forbidden("Only the owner can delete this book")
	}

	if err := service.bookRepository.DeleteBook(context, id); err != nil {
		return fmt.Errorf("book_service_delete_failed: %w", err)
	}

	service.logger.Info("book_deleted",
		slog.String("book_id", id),
		slog.String("owner_id", b.OwnerID),
	)

	return nil
}
