// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package list provides reading lists: ordered, shareable collections of books
with dense position sequencing and optimistic concurrency on reorder.

# Security

Read endpoints are publicly reachable and scope their results by the
caller's identity. Mutations require an authenticated session and ownership.
*/
package list

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/middleware"
	requestutil "github.com/shelfmark/shelfmark/internal/platform/request"
	"github.com/shelfmark/shelfmark/internal/platform/respond"
	"github.com/shelfmark/shelfmark/pkg/pagination"
)

// Handler implements the HTTP layer for reading lists.
type Handler struct {
	listService *Service
}

// NewHandler constructs a new list [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{listService: service}
}

// Routes returns a [chi.Router] configured with the list domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Browsing (visibility-scoped, anonymous allowed)
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Mutation (owner only)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", handler.create)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)

		// Entry management
		r.Post("/{id}/entries", handler.addEntry)
		r.Delete("/{id}/entries/{bookId}", handler.removeEntry)
		r.Put("/{id}/entries/{bookId}/note", handler.setNote)
		r.Put("/{id}/order", handler.reorder)
	})

	return router
}

// # Browse Endpoints

/*
GET /api/v1/lists.

Description: Returns a paginated, visibility-scoped page of reading lists.
Supports an "owner" query parameter to browse a single user's lists.

Response:
  - 200: []ReadingList + pagination meta
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))
	params := pagination.FromRequest(request)

	filter := Filter{OwnerID: request.URL.Query().Get("owner")}

	lists, total, err := handler.listService.List(request.Context(), viewer, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if lists == nil {
		lists = []*ReadingList{}
	}

	respond.Paginated(writer, lists, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/lists/{id}.

Description: Retrieves a list with its entries in position order. Entries
whose book the caller may not see are omitted.

Response:
  - 200: Detail: The list with visible entries
  - 403: ErrForbidden: Authenticated caller without access
  - 404: ErrNotFound: Missing, deleted, or hidden from anonymous callers
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	detail, err := handler.listService.Get(request.Context(), viewer, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

// # List Mutation Endpoints

// listRequest defines the JSON payload for creating or replacing a list.
type listRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	Visibility  string  `json:"visibility"`
}

func (r listRequest) toInput() Input {
	return Input{
		Title:       r.Title,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Visibility:  access.Visibility(r.Visibility),
	}
}

/*
POST /api/v1/lists.

Description: Creates a new, empty reading list owned by the caller.

Response:
  - 201: ReadingList
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input listRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.listService.Create(request.Context(), userID, input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, l)
}

/*
PUT /api/v1/lists/{id}.

Description: Replaces the mutable fields of a list the caller owns.

Response:
  - 200: ReadingList
  - 403: ErrForbidden: Caller is not the owner
  - 404: ErrNotFound: List does not exist
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	var input listRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.listService.Update(request.Context(), viewer, requestutil.ID(request, "id"), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, l)
}

/*
DELETE /api/v1/lists/{id}.

Description: Soft-deletes a list the caller owns.

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller is not the owner
  - 404: ErrNotFound: List does not exist
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	if err := handler.listService.Delete(request.Context(), viewer, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Entry Endpoints

// addEntryRequest defines the JSON payload for appending a book to a list.
type addEntryRequest struct {
	BookID string  `json:"book_id"`
	Note   *string `json:"note"`
}

/*
POST /api/v1/lists/{id}/entries.

Description: Appends a book at the end of the list.

Response:
  - 201: Entry: The created entry with its assigned position
  - 404: ErrNotFound: List or book does not exist
  - 409: ErrConflict: Book already in the list
*/
func (handler *Handler) addEntry(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	var input addEntryRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := handler.listService.AddEntry(request.Context(), viewer,
		requestutil.ID(request, "id"), input.BookID, input.Note)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, entry)
}

/*
DELETE /api/v1/lists/{id}/entries/{bookId}.

Description: Removes a book from the list; subsequent entries shift down to
keep positions dense.

Response:
  - 204: No Content
  - 404: ErrNotFound: List or entry does not exist
*/
func (handler *Handler) removeEntry(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	err := handler.listService.RemoveEntry(request.Context(), viewer,
		requestutil.ID(request, "id"), requestutil.ID(request, "bookId"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// setNoteRequest defines the JSON payload for replacing an entry's note.
type setNoteRequest struct {
	Note *string `json:"note"`
}

/*
PUT /api/v1/lists/{id}/entries/{bookId}/note.

Description: Attaches or replaces the note on an entry. A null note clears it.

Response:
  - 204: No Content
  - 400: Validation: Note exceeds the length limit
  - 404: ErrNotFound: List or entry does not exist
*/
func (handler *Handler) setNote(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	var input setNoteRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.listService.SetNote(request.Context(), viewer,
		requestutil.ID(request, "id"), requestutil.ID(request, "bookId"), input.Note)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// reorderRequest defines the JSON payload for a full reorder.
type reorderRequest struct {
	BookIDs []string `json:"book_ids"`
	Version int64    `json:"version"`
}

/*
PUT /api/v1/lists/{id}/order.

Description: Rewrites positions to match the complete desired ordering. The
request must carry the list version the client last read; a stale version is
rejected with 409 and the client refetches before retrying.

Response:
  - 200: ReadingList: The list with its new version
  - 400: Validation: Ordering is not a permutation of the membership
  - 403: ErrForbidden: Caller is not the owner
  - 409: ErrConflict: Version is stale
*/
func (handler *Handler) reorder(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	var input reorderRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	l, err := handler.listService.Reorder(request.Context(), viewer,
		requestutil.ID(request, "id"), input.BookIDs, input.Version)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, l)
}
