// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package auth implements user identity and session management.

It defines the User and Session entities and the flows for registration,
login, token refresh, and credential changes. Identity is the boundary the
rest of the system consumes as a single capability: "given this request,
return a stable subject identifier or none".
*/
package auth

import (
	"time"

	"github.com/shelfmark/shelfmark/internal/platform/sec"
)

// # Domain Entities

// User represents a registered Shelfmark member.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Bio          string       `json:"bio,omitempty"`
	Website      string       `json:"website,omitempty"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Session represents an active refresh-token session. Sessions live in
// Redis keyed by the hash of the refresh token, expiring with it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// # Authentication Constraints

const (
	// AccessTokenTTL keeps JWTs short-lived to limit leaked-token impact.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the session lifetime.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32
)

// # Field Identifiers

// Global field names for validation in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
