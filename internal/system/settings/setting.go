// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package settings implements process-wide application settings.

Its main consumer-facing concern is the default-viewer resolution: which
user's library an anonymous visitor lands on. The setting lives in a
singleton row that is lazily created on first read and mutated only
through an admin-gated endpoint. Resolution happens at request time, never
cached at startup, so an admin change takes effect immediately.
*/
package settings

import (
	"context"
	"time"

	"github.com/shelfmark/shelfmark/internal/users/auth"
)

// # Domain Entities

// Setting is one key/value row of the application settings store.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyAnonymousSubject holds the user ID whose library anonymous visitors
// see. An empty value means no default viewer is configured.
const KeyAnonymousSubject = "anonymous_subject_user_id"

// # Field Identifiers

const (
	FieldUserID = "user_id"
)

// # Repository Contracts

// SettingRepository is the persistence contract for application settings.
//
// Get must lazily create the row with an empty value when it does not
// exist yet, so callers always observe a singleton.
type SettingRepository interface {
	Get(context context.Context, key string) (*Setting, error)
	Set(context context.Context, key, value string) (*Setting, error)
}

// UserFinder resolves a user ID to an account. Satisfied by the auth
// package's user repository.
type UserFinder interface {
	FindByID(context context.Context, id string) (*auth.User, error)
}
