// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package auth

import "context"

// UserRepository is the persistent storage contract for accounts.
type UserRepository interface {
	FindByID(context context.Context, id string) (*User, error)
	FindByEmail(context context.Context, email string) (*User, error)
	FindByUsername(context context.Context, username string) (*User, error)
	Create(context context.Context, user *User) error
	Update(context context.Context, user *User) error
	UpdatePassword(context context.Context, userID, passwordHash string) error
	SoftDelete(context context.Context, userID string) error
}

// SessionRepository is the volatile storage contract for refresh sessions.
//
// Sessions expire with their refresh token; revocation is deletion.
type SessionRepository interface {
	Create(context context.Context, session *Session) error
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)
	Revoke(context context.Context, tokenHash string) error
	RevokeAll(context context.Context, userID string) error
}
