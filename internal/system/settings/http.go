// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfmark/shelfmark/internal/platform/middleware"
	requestutil "github.com/shelfmark/shelfmark/internal/platform/request"
	"github.com/shelfmark/shelfmark/internal/platform/respond"
	"github.com/shelfmark/shelfmark/internal/platform/sec"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements settings-related HTTP endpoints.
type Handler struct {
	settingsService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{settingsService: service}
}

// Routes returns the public settings surface.
//
// # Endpoints
//   - GET /default-viewer : Resolves the anonymous landing profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/default-viewer", handler.getDefaultViewer)
	return router
}

// AdminRoutes returns the admin-gated settings surface.
//
// # Endpoints
//   - PUT /default-viewer : Reconfigures the anonymous landing profile.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)
	router.Use(middleware.RequireRole(sec.RoleAdmin))
	router.Put("/default-viewer", handler.setDefaultViewer)
	return router
}

// # Request Payloads

type setDefaultViewerRequest struct {
	UserID string `json:"user_id"`
}

/*
GetDefaultViewer resolves the profile shown to anonymous visitors.

GET /api/v1/settings/default-viewer

Response:
  - 200: Viewer: Identity of the configured default viewer
  - 404: ErrNotFound: Configured user no longer exists
  - 503: ErrNotConfigured: No default viewer set
*/
func (handler *Handler) getDefaultViewer(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.settingsService.ResolveAnonymousSubject(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		"user_id":      user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
	})
}

/*
SetDefaultViewer reconfigures the anonymous landing profile.

PUT /api/v1/admin/settings/default-viewer

Description: Admin-only. An empty user_id clears the configuration.

Request:
  - Body: setDefaultViewerRequest (UserID)

Response:
  - 200: Setting: Stored configuration
  - 400: ErrInvalidJSON: Unknown user or malformed ID
  - 403: ErrForbidden: Caller is not an admin
*/
func (handler *Handler) setDefaultViewer(writer http.ResponseWriter, request *http.Request) {
	var input setDefaultViewerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	setting, err := handler.settingsService.SetAnonymousSubject(request.Context(), input.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, setting)
}
