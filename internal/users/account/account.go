// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package account handles user profile management and library preferences.

It lets users view and update their private identity data, configure how
their library is presented, and remove their account. The package depends
on the auth package for the User entity; public profile views are mapped
to a reduced DTO so email addresses never leave the private surface.
*/
package account

import (
	"context"
	"time"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/users/auth"
)

// # Domain Entities

// Preferences represents the customizable library settings for a user.
type Preferences struct {
	UserID            string            `json:"user_id"`
	DefaultVisibility access.Visibility `json:"default_visibility"` // Applied to newly created books.
	BooksPerPage      int               `json:"books_per_page"`     // Shelf pagination: 10-100.
	ShelfSort         string            `json:"shelf_sort"`         // 'added', 'title', 'author'
	UpdatedAt         time.Time         `json:"updated_at"`
}

// DefaultPreferences returns the settings applied before a user has saved any.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:            userID,
		DefaultVisibility: access.VisibilityPrivate,
		BooksPerPage:      25,
		ShelfSort:         ShelfSortAdded,
		UpdatedAt:         time.Now(),
	}
}

// PublicProfile is the reduced identity view exposed to other users.
type PublicProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Website     string    `json:"website,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// # Preference Constraints

const (
	ShelfSortAdded  = "added"
	ShelfSortTitle  = "title"
	ShelfSortAuthor = "author"

	MinBooksPerPage = 10
	MaxBooksPerPage = 100
)

// # Field Identifiers

const (
	FieldDisplayName       = "display_name"
	FieldBio               = "bio"
	FieldWebsite           = "website"
	FieldAvatarURL         = "avatar_url"
	FieldDefaultVisibility = "default_visibility"
	FieldBooksPerPage      = "books_per_page"
	FieldShelfSort         = "shelf_sort"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
// The auth package's user repository satisfies it.
type AccountRepository interface {
	FindByID(context context.Context, id string) (*auth.User, error)
	FindByUsername(context context.Context, username string) (*auth.User, error)
	Update(context context.Context, user *auth.User) error
	SoftDelete(context context.Context, id string) error
}

// PreferencesRepository defines the persistence contract for library settings.
type PreferencesRepository interface {
	FindByUserID(context context.Context, userID string) (*Preferences, error)
	Upsert(context context.Context, prefs *Preferences) error
}

// SessionRevoker terminates every session for a user. Satisfied by the auth
// package's session repository.
type SessionRevoker interface {
	RevokeAll(context context.Context, userID string) error
}
