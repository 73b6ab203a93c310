// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package list

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
	"github.com/shelfmark/shelfmark/pkg/slice"
	"github.com/shelfmark/shelfmark/pkg/slug"
	"github.com/shelfmark/shelfmark/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business logic for reading lists.
//
// All ownership and visibility decisions route through the access package.
// Entry mutations additionally rely on the repository's transactional
// guarantees for position density (see [Repository]).
type Service struct {
	listRepository Repository
	bookRepository book.Repository
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(listRepo Repository, bookRepo book.Repository, logger *slog.Logger) *Service {
	return &Service{
		listRepository: listRepo,
		bookRepository: bookRepo,
		logger:         logger,
	}
}

// # Input Types

// Input defines the caller-supplied fields for creating or replacing a list.
type Input struct {
	Title       string
	Description *string
	CoverURL    *string
	Visibility  access.Visibility
}

func validateInput(input *Input) error {
	v := &validate.Validator{}

	v.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 200)

	if input.Description != nil {
		v.MaxLen(FieldDescription, *input.Description, 2000)
	}
	if input.CoverURL != nil && *input.CoverURL != "" {
		v.URL(FieldCoverURL, *input.CoverURL)
	}

	if input.Visibility == "" {
		input.Visibility = access.VisibilityPrivate
	}
	if !input.Visibility.Valid() {
		v.OneOf(FieldVisibility, string(input.Visibility), access.Values()...)
	}

	return v.Err()
}

// hiddenOrForbidden maps an authorization failure to the outward signal:
// anonymous callers learn nothing, authenticated callers get an explicit
// refusal.
func hiddenOrForbidden(viewer access.Viewer, resource, action string) error {
	if !viewer.Authenticated {
		return apperr.NotFound(resource)
	}
	return apperr.Forbidden(action)
}

// # List Operations

/*
List returns a visibility-scoped page of reading lists.
*/
func (service *Service) List(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*ReadingList, int, error) {
	lists, total, err := service.listRepository.ListLists(context, viewer, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list_service_list_failed: %w", err)
	}
	return lists, total, nil
}

// Detail pairs a reading list with its (visibility-filtered) entries.
type Detail struct {
	ReadingList
	Entries []*Entry `json:"entries"`
}

/*
Get retrieves a reading list and its entries for a viewer.

Description: List-level access follows the standard visibility rules. Entries
are then filtered independently: a non-owner only receives entries whose
underlying book is PUBLIC, so a public list that picked up a private book
keeps that book hidden from everyone but the owner.

Parameters:
  - context: context.Context
  - viewer: access.Viewer
  - id: string

Returns:
  - *Detail: The list with its visible entries in position order
  - error: Not found, forbidden, or storage failures
*/
func (service *Service) Get(context context.Context, viewer access.Viewer, id string) (*Detail, error) {
	l, err := service.listRepository.GetList(context, id)
	if err != nil {
		return nil, fmt.Errorf("list_service_get_failed: %w", err)
	}

	if !access.CanView(viewer, l.OwnerID, l.Visibility) {
		return nil, hiddenOrForbidden(viewer, "Reading list", "You do not have access to this list")
	}

	entries, err := service.listRepository.ListEntries(context, id)
	if err != nil {
		return nil, fmt.Errorf("list_service_entries_failed: %w", err)
	}

	// Nested visibility: non-owners only see entries whose book is PUBLIC.
	if !viewer.IsOwner(l.OwnerID) {
		entries = slice.Filter(entries, func(e *Entry) bool {
			return e.Book != nil && e.Book.Visibility == access.VisibilityPublic
		})
	}

	if entries == nil {
		entries = []*Entry{}
	}

	return &Detail{ReadingList: *l, Entries: entries}, nil
}

/*
Create starts a new, empty reading list owned by the caller.
*/
func (service *Service) Create(context context.Context, ownerID string, input Input) (*ReadingList, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	l := &ReadingList{
		ID:          uuidv7.New(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Slug:        slug.From(input.Title),
		Description: input.Description,
		CoverURL:    input.CoverURL,
		Visibility:  input.Visibility,
	}

	if err := service.listRepository.CreateList(context, l); err != nil {
		if apperr.Code(err) == apperr.CodeConflict {
			return nil, apperr.Conflict("You already have a list with this title")
		}
		return nil, fmt.Errorf("list_service_create_failed: %w", err)
	}

	service.logger.Info("reading_list_created",
		slog.String("list_id", l.ID),
		slog.String("owner_id", ownerID),
	)

	return l, nil
}

/*
Update replaces the mutable fields of a list the caller owns.
*/
func (service *Service) Update(context context.Context, viewer access.Viewer, id string, input Input) (*ReadingList, error) {
	l, err := service.listRepository.GetList(context, id)
	if err != nil {
		return nil, fmt.Errorf("list_service_update_lookup_failed: %w", err)
	}

	if !access.CanEdit(viewer, l.OwnerID) {
		return nil, hiddenOrForbidden(viewer, "Reading list", "Only the owner can modify this list")
	}

	if err := validateInput(&input); err != nil {
		return nil, err
	}

	l.Title = input.Title
	l.Slug = slug.From(input.Title)
	l.Description = input.Description
	l.CoverURL = input.CoverURL
	l.Visibility = input.Visibility

	if err := service.listRepository.UpdateList(context, l); err != nil {
		return nil, fmt.Errorf("list_service_update_failed: %w", err)
	}

	service.logger.Info("reading_list_updated", slog.String("list_id", id))

	return l, nil
}

/*
Delete soft-deletes a list the caller owns. Entries go with it.
*/
func (service *Service) Delete(context context.Context, viewer access.Viewer, id string) error {
	l, err := service.listRepository.GetList(context, id)
	if err != nil {
		return fmt.Errorf("list_service_delete_lookup_failed: %w", err)
	}

	if !access.CanDelete(viewer, l.OwnerID) {
		return hiddenOrForbidden(viewer, "Reading list", "Only the owner can delete this list")
	}

	if err := service.listRepository.DeleteList(context, id); err != nil {
		return fmt.Errorf("list_service_delete_failed: %w", err)
	}

	service.logger.Info("reading_list_deleted", slog.String("list_id", id))

	return nil
}

// # Entry Operations

// requireOwnedList fetches a list and verifies the viewer owns it.
func (service *Service) requireOwnedList(context context.Context, viewer access.Viewer, listID string) (*ReadingList, error) {
	l, err := service.listRepository.GetList(context, listID)
	if err != nil {
		return nil, fmt.Errorf("list_service_lookup_failed: %w", err)
	}
	if !access.CanEdit(viewer, l.OwnerID) {
		return nil, hiddenOrForbidden(viewer, "Reading list", "Only the owner can modify this list")
	}
	return l, nil
}

/*
AddEntry appends a book to the end of a list the caller owns.

Description: The book must exist and be viewable by the caller — owners can
shelve any of their own books, and any PUBLIC or UNLISTED book can be added
by reference.

Returns:
  - *Entry: The created entry with its assigned position
  - error: Authorization, conflict (already in list), or storage failures
*/
func (service *Service) AddEntry(context context.Context, viewer access.Viewer, listID, bookID string, note *string) (*Entry, error) {
	if _, err := service.requireOwnedList(context, viewer, listID); err != nil {
		return nil, err
	}

	b, err := service.bookRepository.GetBook(context, bookID)
	if err != nil {
		return nil, fmt.Errorf("list_service_add_entry_book_failed: %w", err)
	}
	if !access.CanView(viewer, b.OwnerID, b.Visibility) {
		return nil, apperr.NotFound("Book")
	}

	if err := validateNote(note); err != nil {
		return nil, err
	}

	entry, err := service.listRepository.AddEntry(context, listID, bookID, note)
	if err != nil {
		if apperr.Code(err) == apperr.CodeConflict {
			return nil, apperr.Conflict("This book is already in the list")
		}
		return nil, fmt.Errorf("list_service_add_entry_failed: %w", err)
	}

	service.logger.Info("list_entry_added",
		slog.String("list_id", listID),
		slog.String("book_id", bookID),
		slog.Int("position", entry.Position),
	)

	return entry, nil
}

/*
RemoveEntry deletes a book from a list the caller owns, keeping the
remaining positions dense.
*/
func (service *Service) RemoveEntry(context context.Context, viewer access.Viewer, listID, bookID string) error {
	if _, err := service.requireOwnedList(context, viewer, listID); err != nil {
		return err
	}

	if err := service.listRepository.RemoveEntry(context, listID, bookID); err != nil {
		return fmt.Errorf("list_service_remove_entry_failed: %w", err)
	}

	service.logger.Info("list_entry_removed",
		slog.String("list_id", listID),
		slog.String("book_id", bookID),
	)

	return nil
}

func validateNote(note *string) error {
	if note == nil {
		return nil
	}
	v := &validate.Validator{}
	v.MaxLen(FieldNote, *note, MaxNoteLength)
	return v.Err()
}

/*
SetNote attaches or replaces the free-text note on an entry. Positions are
untouched.
*/
func (service *Service) SetNote(context context.Context, viewer access.Viewer, listID, bookID string, note *string) error {
	if _, err := service.requireOwnedList(context, viewer, listID); err != nil {
		return err
	}

	if err := validateNote(note); err != nil {
		return err
	}

	if err := service.listRepository.SetNote(context, listID, bookID, note); err != nil {
		return fmt.Errorf("list_service_set_note_failed: %w", err)
	}

	return nil
}

/*
Reorder rewrites a list's positions to match the complete desired ordering.

Description: The caller supplies every book ID in the list, in the order it
wants, plus the list version it last read. A stale version means another
request changed the list in the meantime; the caller must discard its local
ordering, refetch, and try again from the authoritative state.

Parameters:
  - context: context.Context
  - viewer: access.Viewer
  - listID: string
  - orderedBookIDs: []string (Complete permutation of the list's membership)
  - version: int64 (The list version the caller read)

Returns:
  - *ReadingList: The list with its new version
  - error: Validation, authorization, conflict, or storage failures
*/
func (service *Service) Reorder(context context.Context, viewer access.Viewer, listID string, orderedBookIDs []string, version int64) (*ReadingList, error) {
	if _, err := service.requireOwnedList(context, viewer, listID); err != nil {
		return nil, err
	}

	v := &validate.Validator{}
	v.RequiredSlice(FieldBookIDs, orderedBookIDs)
	v.Custom(FieldVersion, version < 1, "Must be the version previously read")
	if err := v.Err(); err != nil {
		return nil, err
	}

	l, err := service.listRepository.Reorder(context, listID, orderedBookIDs, version)
	if err != nil {
		if apperr.Code(err) == apperr.CodeConflict || apperr.Code(err) == apperr.CodeValidation {
			return nil, err
		}
		return nil, fmt.Errorf("list_service_reorder_failed: %w", err)
	}

	service.logger.Info("reading_list_reordered",
		slog.String("list_id", listID),
		slog.Int64("version", l.Version),
	)

	return l, nil
}
