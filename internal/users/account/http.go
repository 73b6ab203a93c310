// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/middleware"
	requestutil "github.com/shelfmark/shelfmark/internal/platform/request"
	"github.com/shelfmark/shelfmark/internal/platform/respond"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements account-related HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns the authenticated "me" surface.
//
// # Endpoints
//   - GET    /             : Private profile.
//   - PUT    /             : Partial profile update.
//   - DELETE /             : Account deletion.
//   - GET    /preferences  : Library settings (defaults if unset).
//   - PUT    /preferences  : Replace library settings.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getProfile)
	router.Put("/", handler.updateProfile)
	router.Delete("/", handler.deleteAccount)
	router.Get("/preferences", handler.getPreferences)
	router.Put("/preferences", handler.updatePreferences)

	return router
}

// PublicRoutes returns the anonymous profile surface.
//
// # Endpoints
//   - GET /{username} : Public profile view.
func (handler *Handler) PublicRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{username}", handler.getPublicProfile)
	return router
}

// # Request Payloads

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Website     *string `json:"website"`
	AvatarURL   *string `json:"avatar_url"`
}

type updatePreferencesRequest struct {
	DefaultVisibility string `json:"default_visibility"`
	BooksPerPage      int    `json:"books_per_page"`
	ShelfSort         string `json:"shelf_sort"`
}

/*
GetProfile returns the authenticated user's private profile.

GET /api/v1/me

Response:
  - 200: User: Full profile including email
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateProfile applies partial changes to the authenticated user's profile.

PUT /api/v1/me

Request:
  - Body: updateProfileRequest (nullable fields; absent means unchanged)

Response:
  - 200: User: Updated profile
  - 400: ErrInvalidJSON: Validation failure
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		Website:     input.Website,
		AvatarURL:   input.AvatarURL,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteAccount soft-deletes the authenticated user's account.

DELETE /api/v1/me

Response:
  - 204: No Content: Account removed and sessions revoked
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GetPreferences returns the user's library settings.

GET /api/v1/me/preferences

Response:
  - 200: Preferences: Stored or default settings
*/
func (handler *Handler) getPreferences(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	prefs, err := handler.accountService.GetPreferences(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, prefs)
}

/*
UpdatePreferences replaces the user's library settings.

PUT /api/v1/me/preferences

Request:
  - Body: updatePreferencesRequest (DefaultVisibility, BooksPerPage, ShelfSort)

Response:
  - 200: Preferences: Stored settings
  - 400: ErrInvalidJSON: Validation failure
*/
func (handler *Handler) updatePreferences(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePreferencesRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	prefs, err := handler.accountService.UpdatePreferences(request.Context(), &Preferences{
		UserID:            userID,
		DefaultVisibility: access.Visibility(input.DefaultVisibility),
		BooksPerPage:      input.BooksPerPage,
		ShelfSort:         input.ShelfSort,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, prefs)
}

/*
GetPublicProfile returns another user's public profile.

GET /api/v1/users/{username}

Response:
  - 200: PublicProfile: Identity view without email or role
  - 404: ErrNotFound: Unknown username
*/
func (handler *Handler) getPublicProfile(writer http.ResponseWriter, request *http.Request) {
	username := chi.URLParam(request, "username")

	profile, err := handler.accountService.GetPublicProfile(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
