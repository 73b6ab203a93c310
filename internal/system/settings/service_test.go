// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/users/auth"
	"github.com/shelfmark/shelfmark/pkg/uuidv7"
)

// # Test Doubles

type fakeSettingRepository struct {
	rows map[string]*Setting
}

func newFakeSettingRepository() *fakeSettingRepository {
	return &fakeSettingRepository{rows: map[string]*Setting{}}
}

// Get mirrors the lazy-upsert behavior of the Postgres store.
func (f *fakeSettingRepository) Get(_ context.Context, key string) (*Setting, error) {
	if s, ok := f.rows[key]; ok {
		return s, nil
	}
	seeded := &Setting{Key: key, Value: "", UpdatedAt: time.Now()}
	f.rows[key] = seeded
	return seeded, nil
}

func (f *fakeSettingRepository) Set(_ context.Context, key, value string) (*Setting, error) {
	s := &Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	f.rows[key] = s
	return s, nil
}

type fakeUserFinder struct {
	users map[string]*auth.User
}

func (f *fakeUserFinder) FindByID(_ context.Context, id string) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func newSettingsService(repo SettingRepository, users map[string]*auth.User) *Service {
	return NewService(repo, &fakeUserFinder{users: users}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Resolution

func TestResolveAnonymousSubject(t *testing.T) {
	userID := uuidv7.New()

	t.Run("unset_is_not_configured", func(t *testing.T) {
		service := newSettingsService(newFakeSettingRepository(), nil)

		_, err := service.ResolveAnonymousSubject(context.Background())

		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotConfigured, apperr.Code(err))
	})

	t.Run("dangling_reference_is_not_found", func(t *testing.T) {
		repo := newFakeSettingRepository()
		repo.rows[KeyAnonymousSubject] = &Setting{Key: KeyAnonymousSubject, Value: userID}
		service := newSettingsService(repo, nil)

		_, err := service.ResolveAnonymousSubject(context.Background())

		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
	})

	t.Run("configured_returns_user", func(t *testing.T) {
		repo := newFakeSettingRepository()
		repo.rows[KeyAnonymousSubject] = &Setting{Key: KeyAnonymousSubject, Value: userID}
		service := newSettingsService(repo, map[string]*auth.User{
			userID: {ID: userID, Username: "margaret"},
		})

		user, err := service.ResolveAnonymousSubject(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "margaret", user.Username)
	})

	t.Run("change_is_visible_on_next_read", func(t *testing.T) {
		repo := newFakeSettingRepository()
		service := newSettingsService(repo, map[string]*auth.User{
			userID: {ID: userID, Username: "margaret"},
		})

		_, err := service.ResolveAnonymousSubject(context.Background())
		require.Equal(t, apperr.CodeNotConfigured, apperr.Code(err))

		_, err = service.SetAnonymousSubject(context.Background(), userID)
		require.NoError(t, err)

		user, err := service.ResolveAnonymousSubject(context.Background())
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
	})
}

// # Mutation

func TestSetAnonymousSubject(t *testing.T) {
	userID := uuidv7.New()

	t.Run("unknown_user_rejected", func(t *testing.T) {
		service := newSettingsService(newFakeSettingRepository(), nil)

		_, err := service.SetAnonymousSubject(context.Background(), uuidv7.New())

		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("malformed_id_rejected", func(t *testing.T) {
		service := newSettingsService(newFakeSettingRepository(), nil)

		_, err := service.SetAnonymousSubject(context.Background(), "not-a-uuid")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("empty_id_clears_configuration", func(t *testing.T) {
		repo := newFakeSettingRepository()
		service := newSettingsService(repo, map[string]*auth.User{
			userID: {ID: userID},
		})

		_, err := service.SetAnonymousSubject(context.Background(), userID)
		require.NoError(t, err)

		_, err = service.SetAnonymousSubject(context.Background(), "")
		require.NoError(t, err)

		_, err = service.ResolveAnonymousSubject(context.Background())
		assert.Equal(t, apperr.CodeNotConfigured, apperr.Code(err))
	})
}
