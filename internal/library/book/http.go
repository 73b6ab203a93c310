// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package book provides the personal catalogue: entities, storage, business
rules, and the HTTP delivery layer for books on a user's shelf.

# Security

Read endpoints are publicly reachable and scope their results by the caller's
identity. Write endpoints require an authenticated session provided by the
RequireAuth middleware.
*/
package book

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/middleware"
	requestutil "github.com/shelfmark/shelfmark/internal/platform/request"
	"github.com/shelfmark/shelfmark/internal/platform/respond"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
	"github.com/shelfmark/shelfmark/pkg/pagination"
	"github.com/shelfmark/shelfmark/pkg/query"
)

// maxImportBatch bounds a single import request.
const maxImportBatch = 500

// Handler implements the HTTP layer for the book catalogue.
type Handler struct {
	bookService *Service
}

// NewHandler constructs a new book [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{bookService: service}
}

// Routes returns a [chi.Router] configured with the book domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Catalogue browsing (visibility-scoped, anonymous allowed)
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Catalogue mutation (owner only)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", handler.create)
		r.Post("/import", handler.importBatch)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
	})

	return router
}

// # Browse Endpoints

/*
GET /api/v1/books.

Description: Returns a paginated, visibility-scoped page of books. Supports
"q" (title/author search), "owner" (single shelf), and "subjects"
(comma-separated tags) query parameters.

Response:
  - 200: []Book + pagination meta
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))
	params := pagination.FromRequest(request)

	filter := Filter{
		Query:    request.URL.Query().Get("q"),
		OwnerID:  request.URL.Query().Get("owner"),
		Subjects: query.StringSlice(request.URL.Query().Get("subjects")),
	}

	books, total, err := handler.bookService.List(request.Context(), viewer, filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if books == nil {
		books = []*Book{}
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/books/{id}.

Description: Retrieves a single book if the caller may view it.

Response:
  - 200: Book
  - 403: ErrForbidden: Authenticated caller without access
  - 404: ErrNotFound: Missing, deleted, or hidden from anonymous callers
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	b, err := handler.bookService.Get(request.Context(), viewer, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, b)
}

// # Mutation Endpoints

// bookRequest defines the JSON payload for creating or replacing a book.
type bookRequest struct {
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
	Visibility       string   `json:"visibility"`
}

// toInput converts the wire payload into a service-layer [Input].
func (r bookRequest) toInput() Input {
	return Input{
		Title:            r.Title,
		LongTitle:        r.LongTitle,
		Authors:          r.Authors,
		ISBN10:           r.ISBN10,
		ISBN13:           r.ISBN13,
		Publisher:        r.Publisher,
		Synopsis:         r.Synopsis,
		PageCount:        r.PageCount,
		PublishedOn:      r.PublishedOn,
		Subjects:         r.Subjects,
		Binding:          r.Binding,
		ImageURL:         r.ImageURL,
		OriginalImageURL: r.OriginalImageURL,
		Visibility:       access.Visibility(r.Visibility),
	}
}

/*
POST /api/v1/books.

Description: Catalogues a single book on the caller's shelf.

Request:
  - body: bookRequest

Response:
  - 201: Book: The created entry
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
  - 409: ErrConflict: ISBN already on this shelf
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input bookRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	b, err := handler.bookService.Create(request.Context(), userID, input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, b)
}

// importRequest defines the JSON payload for a batch import.
type importRequest struct {
	Books []bookRequest `json:"books"`
}

/*
POST /api/v1/books/import.

Description: Catalogues a batch of books in one transaction. Duplicate
ISBNs already on the shelf count as skips; the response tallies created
and skipped rows so clients can report partial outcomes.

Request:
  - body: importRequest (1..500 books)

Response:
  - 200: BulkResult: Created/skipped tallies
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) importBatch(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input importRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if len(input.Books) > maxImportBatch {
		respond.Error(writer, request, validate.RequiredError("books",
			fmt.Sprintf("A single import is limited to %d books", maxImportBatch)))
		return
	}

	inputs := make([]Input, len(input.Books))
	for i, b := range input.Books {
		inputs[i] = b.toInput()
	}

	result, err := handler.bookService.Import(request.Context(), userID, inputs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
PUT /api/v1/books/{id}.

Description: Replaces the mutable fields of a book the caller owns.

Response:
  - 200: Book: The updated entry
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Caller is not the owner
  - 404: ErrNotFound: Book does not exist
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	var input bookRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	b, err := handler.bookService.Update(request.Context(), viewer, requestutil.ID(request, "id"), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, b)
}

/*
DELETE /api/v1/books/{id}.

Description: Soft-deletes a book the caller owns.

Response:
  - 204: No Content
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrForbidden: Caller is not the owner
  - 404: ErrNotFound: Book does not exist
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	viewer := access.ViewerFromClaims(requestutil.Claims(request))

	if err := handler.bookService.Delete(request.Context(), viewer, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
