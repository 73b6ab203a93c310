// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/sec"
)

// # Test Doubles

type fakeUserRepository struct {
	byID       map[string]*User
	createErrs []error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byID: map[string]*User{}}
}

func (f *fakeUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) Create(_ context.Context, user *User) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepository) Update(_ context.Context, user *User) error {
	if _, ok := f.byID[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepository) SoftDelete(_ context.Context, userID string) error {
	if _, ok := f.byID[userID]; !ok {
		return apperr.NotFound("User")
	}
	delete(f.byID, userID)
	return nil
}

type fakeSessionRepository struct {
	byHash map[string]*Session
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{byHash: map[string]*Session{}}
}

func (f *fakeSessionRepository) Create(_ context.Context, session *Session) error {
	f.byHash[session.TokenHash] = session
	return nil
}

func (f *fakeSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	if s, ok := f.byHash[tokenHash]; ok {
		return s, nil
	}
	return nil, apperr.NotFound("Session")
}

func (f *fakeSessionRepository) Revoke(_ context.Context, tokenHash string) error {
	delete(f.byHash, tokenHash)
	return nil
}

func (f *fakeSessionRepository) RevokeAll(_ context.Context, userID string) error {
	for hash, session := range f.byHash {
		if session.UserID == userID {
			delete(f.byHash, hash)
		}
	}
	return nil
}

type stubTokenProvider struct{}

func (stubTokenProvider) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "access-token-for-" + userID, nil
}

func newTestService(users *fakeUserRepository, sessions *fakeSessionRepository) *Service {
	return NewService(users, sessions, stubTokenProvider{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func registerTestUser(t *testing.T, service *Service) *User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{
		Username: "margaret",
		Email:    "margaret@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

// # Registration

func TestRegister(t *testing.T) {
	t.Run("valid_input_creates_member", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())

		user := registerTestUser(t, service)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, sec.RoleMember, user.Role)
		assert.Equal(t, "margaret", user.DisplayName, "display name defaults to username")
		assert.NotEqual(t, "correct-horse", user.PasswordHash, "password must be hashed")
	})

	t.Run("duplicate_email_is_conflict", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		registerTestUser(t, service)

		_, err := service.Register(context.Background(), RegisterInput{
			Username: "other-name",
			Email:    "margaret@example.com",
			Password: "correct-horse",
		})

		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.Code(err))
	})

	t.Run("duplicate_username_is_conflict", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		registerTestUser(t, service)

		_, err := service.Register(context.Background(), RegisterInput{
			Username: "margaret",
			Email:    "different@example.com",
			Password: "correct-horse",
		})

		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.Code(err))
	})

	t.Run("rejects_weak_input", func(t *testing.T) {
		service := newTestService(newFakeUserRepository(), newFakeSessionRepository())

		cases := []struct {
			name  string
			input RegisterInput
		}{
			{"short_username", RegisterInput{Username: "ab", Email: "a@b.com", Password: "long-enough"}},
			{"bad_email", RegisterInput{Username: "valid-name", Email: "nope", Password: "long-enough"}},
			{"short_password", RegisterInput{Username: "valid-name", Email: "a@b.com", Password: "short"}},
		}

		for _, testCase := range cases {
			t.Run(testCase.name, func(t *testing.T) {
				_, err := service.Register(context.Background(), testCase.input)
				require.Error(t, err)
				assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
			})
		}
	})
}

// # Login & Sessions

func TestLogin(t *testing.T) {
	t.Run("by_email_and_by_username", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		registerTestUser(t, service)

		for _, login := range []string{"margaret@example.com", "margaret"} {
			session, err := service.Login(context.Background(), LoginInput{
				Login:    login,
				Password: "correct-horse",
			})
			require.NoError(t, err, login)
			assert.NotEmpty(t, session.AccessToken)
			assert.NotEmpty(t, session.RefreshToken)
		}
	})

	t.Run("wrong_password_and_unknown_user_are_indistinguishable", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		registerTestUser(t, service)

		_, errWrongPassword := service.Login(context.Background(), LoginInput{
			Login: "margaret", Password: "battery-staple",
		})
		_, errUnknownUser := service.Login(context.Background(), LoginInput{
			Login: "nobody", Password: "battery-staple",
		})

		require.Error(t, errWrongPassword)
		require.Error(t, errUnknownUser)
		assert.Equal(t, errWrongPassword.Error(), errUnknownUser.Error())
		assert.Equal(t, apperr.CodeUnauthorized, apperr.Code(errWrongPassword))
	})
}

func TestRefreshSession(t *testing.T) {
	t.Run("rotation_revokes_old_token", func(t *testing.T) {
		users := newFakeUserRepository()
		sessions := newFakeSessionRepository()
		service := newTestService(users, sessions)
		registerTestUser(t, service)

		login, err := service.Login(context.Background(), LoginInput{
			Login: "margaret", Password: "correct-horse",
		})
		require.NoError(t, err)

		refreshed, err := service.RefreshSession(context.Background(), login.RefreshToken, "ua", "ip")
		require.NoError(t, err)
		assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

		// Replaying the consumed token must fail.
		_, err = service.RefreshSession(context.Background(), login.RefreshToken, "ua", "ip")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthorized, apperr.Code(err))
	})

	t.Run("unknown_token_is_unauthorized", func(t *testing.T) {
		service := newTestService(newFakeUserRepository(), newFakeSessionRepository())

		_, err := service.RefreshSession(context.Background(), "never-issued", "ua", "ip")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthorized, apperr.Code(err))
	})
}

func TestLogout(t *testing.T) {
	t.Run("revokes_session", func(t *testing.T) {
		users := newFakeUserRepository()
		sessions := newFakeSessionRepository()
		service := newTestService(users, sessions)
		registerTestUser(t, service)

		login, err := service.Login(context.Background(), LoginInput{
			Login: "margaret", Password: "correct-horse",
		})
		require.NoError(t, err)
		require.Len(t, sessions.byHash, 1)

		require.NoError(t, service.Logout(context.Background(), login.RefreshToken))
		assert.Empty(t, sessions.byHash)
	})

	t.Run("idempotent_for_unknown_token", func(t *testing.T) {
		service := newTestService(newFakeUserRepository(), newFakeSessionRepository())

		assert.NoError(t, service.Logout(context.Background(), "never-issued"))
	})
}

// # Credential Changes

func TestChangePassword(t *testing.T) {
	t.Run("updates_hash_and_revokes_all_sessions", func(t *testing.T) {
		users := newFakeUserRepository()
		sessions := newFakeSessionRepository()
		service := newTestService(users, sessions)
		user := registerTestUser(t, service)

		_, err := service.Login(context.Background(), LoginInput{Login: "margaret", Password: "correct-horse"})
		require.NoError(t, err)
		_, err = service.Login(context.Background(), LoginInput{Login: "margaret", Password: "correct-horse"})
		require.NoError(t, err)
		require.Len(t, sessions.byHash, 2)

		err = service.ChangePassword(context.Background(), user.ID, "correct-horse", "staple-battery")
		require.NoError(t, err)

		assert.Empty(t, sessions.byHash, "all devices must re-authenticate")

		_, err = service.Login(context.Background(), LoginInput{Login: "margaret", Password: "staple-battery"})
		assert.NoError(t, err)
	})

	t.Run("wrong_current_password_is_unauthorized", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		user := registerTestUser(t, service)

		err := service.ChangePassword(context.Background(), user.ID, "battery-staple", "staple-battery")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeUnauthorized, apperr.Code(err))
	})

	t.Run("rejects_short_new_password", func(t *testing.T) {
		users := newFakeUserRepository()
		service := newTestService(users, newFakeSessionRepository())
		user := registerTestUser(t, service)

		err := service.ChangePassword(context.Background(), user.ID, "correct-horse", "tiny")

		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})
}
