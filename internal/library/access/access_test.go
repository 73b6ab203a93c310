// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/sec"
)

const (
	ownerID    = "0194d3a2-0000-7000-8000-000000000001"
	strangerID = "0194d3a2-0000-7000-8000-000000000002"
)

var (
	owner    = access.Viewer{ID: ownerID, Authenticated: true}
	stranger = access.Viewer{ID: strangerID, Authenticated: true}
)

/*
TestCanView covers the full (viewer, visibility) decision matrix.
*/
func TestCanView(t *testing.T) {
	tests := []struct {
		name       string
		viewer     access.Viewer
		visibility access.Visibility
		want       bool
	}{
		{"anonymous_public", access.Anonymous, access.VisibilityPublic, true},
		{"anonymous_unlisted", access.Anonymous, access.VisibilityUnlisted, true},
		{"anonymous_private", access.Anonymous, access.VisibilityPrivate, false},
		{"stranger_public", stranger, access.VisibilityPublic, true},
		{"stranger_unlisted", stranger, access.VisibilityUnlisted, true},
		{"stranger_private", stranger, access.VisibilityPrivate, false},
		{"owner_public", owner, access.VisibilityPublic, true},
		{"owner_unlisted", owner, access.VisibilityUnlisted, true},
		{"owner_private", owner, access.VisibilityPrivate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanView(tt.viewer, ownerID, tt.visibility))
		})
	}
}

/*
TestCanEdit verifies that mutation is owner-only with no visibility exceptions.
*/
func TestCanEdit(t *testing.T) {
	assert.True(t, access.CanEdit(owner, ownerID))
	assert.False(t, access.CanEdit(stranger, ownerID))
	assert.False(t, access.CanEdit(access.Anonymous, ownerID))

	// An unauthenticated viewer carrying the owner's ID must still be denied.
	spoofed := access.Viewer{ID: ownerID, Authenticated: false}
	assert.False(t, access.CanEdit(spoofed, ownerID))

	assert.Equal(t, access.CanEdit(owner, ownerID), access.CanDelete(owner, ownerID))
	assert.Equal(t, access.CanEdit(stranger, ownerID), access.CanDelete(stranger, ownerID))
}

/*
TestListFilter checks the generated SQL predicate and its arguments.
*/
func TestListFilter(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		clause, args := access.ListFilter(access.Anonymous, "visibility", "ownerid", 1)
		assert.Equal(t, "visibility = $1", clause)
		assert.Equal(t, []any{"PUBLIC"}, args)
	})

	t.Run("authenticated", func(t *testing.T) {
		clause, args := access.ListFilter(stranger, "visibility", "ownerid", 3)
		assert.Equal(t, "(visibility = $3 OR ownerid = $4)", clause)
		assert.Equal(t, []any{"PUBLIC", strangerID}, args)
	})
}

/*
TestViewerFromClaims verifies claim-to-viewer derivation.
*/
func TestViewerFromClaims(t *testing.T) {
	assert.Equal(t, access.Anonymous, access.ViewerFromClaims(nil))

	viewer := access.ViewerFromClaims(&sec.AuthClaims{UserID: ownerID})
	assert.True(t, viewer.Authenticated)
	assert.Equal(t, ownerID, viewer.ID)
	assert.True(t, viewer.IsOwner(ownerID))
	assert.False(t, viewer.IsOwner(strangerID))
}

/*
TestVisibilityValid checks the enum guard.
*/
func TestVisibilityValid(t *testing.T) {
	assert.True(t, access.Visibility("PUBLIC").Valid())
	assert.True(t, access.Visibility("PRIVATE").Valid())
	assert.True(t, access.Visibility("UNLISTED").Valid())
	assert.False(t, access.Visibility("public").Valid())
	assert.False(t, access.Visibility("").Valid())
	assert.Len(t, access.Values(), 3)
}
