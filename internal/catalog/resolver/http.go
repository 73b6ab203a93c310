// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package resolver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/shelfmark/shelfmark/internal/platform/request"
	"github.com/shelfmark/shelfmark/internal/platform/respond"
)

// Handler implements the HTTP layer for metadata resolution.
//
// # Security
//
// Resolution is authenticated: the duplicate check is scoped to the caller's
// own shelf, so there is no meaningful anonymous variant.
type Handler struct {
	resolver *Resolver
}

// NewHandler constructs a new resolver [Handler].
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Routes returns a [chi.Router] configured with the resolver endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/resolve/{identifier}", handler.resolve)
	return router
}

/*
GET /api/v1/catalog/resolve/{identifier}.

Description: Resolves an ISBN into a candidate record flagged for
completeness and duplication against the caller's shelf.

Response:
  - 200: Candidate
  - 400: Validation: Identifier is not a 10- or 13-digit ISBN
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: The provider has no record for this identifier
  - 502: NetworkError: Provider unreachable or faulted
  - 504: TimeoutError: Provider did not answer within the lookup budget
*/
func (handler *Handler) resolve(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	candidate, err := handler.resolver.Resolve(request.Context(), userID, requestutil.ID(request, "identifier"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, candidate)
}
