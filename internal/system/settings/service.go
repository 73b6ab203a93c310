// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
	"github.com/shelfmark/shelfmark/internal/users/auth"
)

// # Service Layer

// Service orchestrates application settings and default-viewer resolution.
type Service struct {
	settingRepository SettingRepository
	userFinder        UserFinder
	logger            *slog.Logger
}

// NewService constructs a new settings [Service].
func NewService(settingRepo SettingRepository, userFinder UserFinder, logger *slog.Logger) *Service {
	return &Service{
		settingRepository: settingRepo,
		userFinder:        userFinder,
		logger:            logger,
	}
}

// # Default-Viewer Resolution

/*
ResolveAnonymousSubject returns the user whose library anonymous visitors
should see.

Description: Reads the singleton setting at request time. The two failure
modes are deliberately distinct: an unset value means the instance was
never configured (NOT_CONFIGURED), while a set value pointing at a missing
or deleted user is a dangling reference (NOT_FOUND).

Returns:
  - *auth.User: The configured default viewer
  - error: apperr.NotConfigured, apperr.NotFound, or storage failures
*/
func (service *Service) ResolveAnonymousSubject(context context.Context) (*auth.User, error) {
	setting, err := service.settingRepository.Get(context, KeyAnonymousSubject)
	if err != nil {
		return nil, fmt.Errorf("settings_service_resolve_read_failed: %w", err)
	}

	if setting.Value == "" {
		return nil, apperr.NotConfigured("No default viewer has been configured")
	}

	user, err := service.userFinder.FindByID(context, setting.Value)
	if err != nil {
		if apperr.Code(err) == apperr.CodeNotFound {
			return nil, apperr.NotFound("Default viewer")
		}
		return nil, fmt.Errorf("settings_service_resolve_lookup_failed: %w", err)
	}

	return user, nil
}

/*
SetAnonymousSubject updates which user anonymous visitors see. Admin-only;
the HTTP layer enforces the role.

Description: An empty userID clears the setting back to unconfigured. A
non-empty userID must reference an existing account.

Returns:
  - *Setting: The stored row
  - error: Validation or storage failures
*/
func (service *Service) SetAnonymousSubject(context context.Context, userID string) (*Setting, error) {
	if userID != "" {
		v := &validate.Validator{}
		v.UUID(FieldUserID, userID)
		if err := v.Err(); err != nil {
			return nil, err
		}

		if _, err := service.userFinder.FindByID(context, userID); err != nil {
			if apperr.Code(err) == apperr.CodeNotFound {
				return nil, apperr.ValidationError("Default viewer must reference an existing user")
			}
			return nil, fmt.Errorf("settings_service_set_lookup_failed: %w", err)
		}
	}

	setting, err := service.settingRepository.Set(context, KeyAnonymousSubject, userID)
	if err != nil {
		return nil, fmt.Errorf("settings_service_set_failed: %w", err)
	}

	service.logger.Info("default_viewer_updated", slog.String("user_id", userID))

	return setting, nil
}
