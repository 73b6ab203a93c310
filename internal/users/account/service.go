// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/validate"
	"github.com/shelfmark/shelfmark/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for user accounts and preferences.
type Service struct {
	accountRepository     AccountRepository
	preferencesRepository PreferencesRepository
	sessionRevoker        SessionRevoker
	logger                *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	preferencesRepo PreferencesRepository,
	sessionRevoker SessionRevoker,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository:     accountRepo,
		preferencesRepository: preferencesRepo,
		sessionRevoker:        sessionRevoker,
		logger:                logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

/*
GetPublicProfile retrieves the reduced public view of a user by username.

Returns:
  - *PublicProfile: Identity view without email or role
  - error: apperr.NotFound or execution failures
*/
func (service *Service) GetPublicProfile(context context.Context, username string) (*PublicProfile, error) {
	user, err := service.accountRepository.FindByUsername(context, username)
	if err != nil {
		if apperr.Code(err) == apperr.CodeNotFound {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_public_profile_failed: %w", err)
	}

	return &PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Bio:         user.Bio,
		Website:     user.Website,
		JoinedAt:    user.CreatedAt,
	}, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Website     *string
	AvatarURL   *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Returns:
  - *auth.User: The updated user profile
  - error: Validation, update, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.Required(FieldDisplayName, *input.DisplayName).MaxLen(FieldDisplayName, *input.DisplayName, 50)
	}
	if input.Bio != nil {
		v.MaxLen(FieldBio, *input.Bio, 500)
	}
	if input.Website != nil && *input.Website != "" {
		v.URL(FieldWebsite, *input.Website)
	}
	if input.AvatarURL != nil && *input.AvatarURL != "" {
		v.URL(FieldAvatarURL, *input.AvatarURL)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Website != nil {
		user.Website = *input.Website
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all
active sessions to force a global sign-out.
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	_ = service.sessionRevoker.RevokeAll(context, userID)

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Preferences Management

/*
GetPreferences retrieves the library settings for a specific user ID.

Description: Attempts a database lookup. If no explicit preferences exist,
it falls back to system-wide defaults.

Returns:
  - *Preferences: Current or default settings
  - error: Storage failures
*/
func (service *Service) GetPreferences(context context.Context, userID string) (*Preferences, error) {
	prefs, err := service.preferencesRepository.FindByUserID(context, userID)
	if err != nil {
		if apperr.Code(err) == apperr.CodeNotFound {
			return DefaultPreferences(userID), nil
		}
		return nil, fmt.Errorf("account_service_get_preferences_failed: %w", err)
	}
	return prefs, nil
}

/*
UpdatePreferences persists new library settings for the user.

Returns:
  - *Preferences: The stored settings
  - error: Validation or storage failures
*/
func (service *Service) UpdatePreferences(context context.Context, prefs *Preferences) (*Preferences, error) {
	v := &validate.Validator{}
	v.OneOf(FieldDefaultVisibility, string(prefs.DefaultVisibility),
		string(access.VisibilityPublic), string(access.VisibilityPrivate), string(access.VisibilityUnlisted)).
		Range(FieldBooksPerPage, prefs.BooksPerPage, MinBooksPerPage, MaxBooksPerPage).
		OneOf(FieldShelfSort, prefs.ShelfSort, ShelfSortAdded, ShelfSortTitle, ShelfSortAuthor)
	if err := v.Err(); err != nil {
		return nil, err
	}

	prefs.UpdatedAt = time.Now()
	if err := service.preferencesRepository.Upsert(context, prefs); err != nil {
		return nil, fmt.Errorf("account_service_save_preferences_failed: %w", err)
	}

	service.logger.Info("user_preferences_updated", slog.String("user_id", prefs.UserID))

	return prefs, nil
}
