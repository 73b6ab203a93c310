// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package account

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/users/auth"
	"github.com/shelfmark/shelfmark/pkg/pointer"
)

// # Test Doubles

type fakeAccountRepository struct {
	users map[string]*auth.User
}

func newFakeAccountRepository(users ...*auth.User) *fakeAccountRepository {
	f := &fakeAccountRepository{users: map[string]*auth.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeAccountRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeAccountRepository) SoftDelete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(f.users, id)
	return nil
}

type fakePreferencesRepository struct {
	byUser map[string]*Preferences
}

func newFakePreferencesRepository() *fakePreferencesRepository {
	return &fakePreferencesRepository{byUser: map[string]*Preferences{}}
}

func (f *fakePreferencesRepository) FindByUserID(_ context.Context, userID string) (*Preferences, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Preferences")
}

func (f *fakePreferencesRepository) Upsert(_ context.Context, prefs *Preferences) error {
	f.byUser[prefs.UserID] = prefs
	return nil
}

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) RevokeAll(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func testUser() *auth.User {
	return &auth.User{
		ID:          "user-1",
		Username:    "margaret",
		Email:       "margaret@example.com",
		DisplayName: "Margaret",
		CreatedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newAccountService(accounts *fakeAccountRepository, prefs *fakePreferencesRepository, revoker *recordingRevoker) *Service {
	return NewService(accounts, prefs, revoker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Profiles

func TestUpdateProfile(t *testing.T) {
	t.Run("partial_update_leaves_other_fields", func(t *testing.T) {
		accounts := newFakeAccountRepository(testUser())
		service := newAccountService(accounts, newFakePreferencesRepository(), &recordingRevoker{})

		updated, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{
			Bio: pointer.To("Collector of field guides."),
		})

		require.NoError(t, err)
		assert.Equal(t, "Collector of field guides.", updated.Bio)
		assert.Equal(t, "Margaret", updated.DisplayName)
	})

	t.Run("rejects_invalid_website", func(t *testing.T) {
		accounts := newFakeAccountRepository(testUser())
		service := newAccountService(accounts, newFakePreferencesRepository(), &recordingRevoker{})

		_, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{
			Website: pointer.To("not a url"),
		})

		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("empty_display_name_rejected", func(t *testing.T) {
		accounts := newFakeAccountRepository(testUser())
		service := newAccountService(accounts, newFakePreferencesRepository(), &recordingRevoker{})

		_, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{
			DisplayName: pointer.To(""),
		})

		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})
}

func TestPublicProfile(t *testing.T) {
	t.Run("omits_private_fields", func(t *testing.T) {
		accounts := newFakeAccountRepository(testUser())
		service := newAccountService(accounts, newFakePreferencesRepository(), &recordingRevoker{})

		profile, err := service.GetPublicProfile(context.Background(), "margaret")

		require.NoError(t, err)
		assert.Equal(t, "user-1", profile.ID)
		assert.Equal(t, "margaret", profile.Username)
		assert.Equal(t, testUser().CreatedAt, profile.JoinedAt)
	})

	t.Run("unknown_username_is_not_found", func(t *testing.T) {
		service := newAccountService(newFakeAccountRepository(), newFakePreferencesRepository(), &recordingRevoker{})

		_, err := service.GetPublicProfile(context.Background(), "nobody")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
	})
}

func TestDeleteAccount(t *testing.T) {
	accounts := newFakeAccountRepository(testUser())
	revoker := &recordingRevoker{}
	service := newAccountService(accounts, newFakePreferencesRepository(), revoker)

	require.NoError(t, service.DeleteAccount(context.Background(), "user-1"))

	assert.Empty(t, accounts.users)
	assert.Equal(t, []string{"user-1"}, revoker.revoked, "deletion must force a global sign-out")
}

// # Preferences

func TestPreferences(t *testing.T) {
	t.Run("unset_returns_defaults", func(t *testing.T) {
		service := newAccountService(newFakeAccountRepository(), newFakePreferencesRepository(), &recordingRevoker{})

		prefs, err := service.GetPreferences(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, access.VisibilityPrivate, prefs.DefaultVisibility)
		assert.Equal(t, 25, prefs.BooksPerPage)
		assert.Equal(t, ShelfSortAdded, prefs.ShelfSort)
	})

	t.Run("update_then_read_back", func(t *testing.T) {
		prefsRepo := newFakePreferencesRepository()
		service := newAccountService(newFakeAccountRepository(), prefsRepo, &recordingRevoker{})

		_, err := service.UpdatePreferences(context.Background(), &Preferences{
			UserID:            "user-1",
			DefaultVisibility: access.VisibilityUnlisted,
			BooksPerPage:      50,
			ShelfSort:         ShelfSortTitle,
		})
		require.NoError(t, err)

		prefs, err := service.GetPreferences(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, access.VisibilityUnlisted, prefs.DefaultVisibility)
		assert.Equal(t, 50, prefs.BooksPerPage)
	})

	t.Run("rejects_out_of_range_settings", func(t *testing.T) {
		service := newAccountService(newFakeAccountRepository(), newFakePreferencesRepository(), &recordingRevoker{})

		cases := []struct {
			name  string
			prefs Preferences
		}{
			{"bad_visibility", Preferences{UserID: "u", DefaultVisibility: "SECRET", BooksPerPage: 25, ShelfSort: ShelfSortAdded}},
			{"too_many_per_page", Preferences{UserID: "u", DefaultVisibility: access.VisibilityPublic, BooksPerPage: 500, ShelfSort: ShelfSortAdded}},
			{"bad_sort", Preferences{UserID: "u", DefaultVisibility: access.VisibilityPublic, BooksPerPage: 25, ShelfSort: "random"}},
		}

		for _, testCase := range cases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := service.UpdatePreferences(context.Background(), &testCase.prefs)
				require.Error(t, err)
				assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
			})
		}
	})
}
