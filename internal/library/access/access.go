// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

/*
Package access implements the visibility engine: pure decision logic mapping
(caller identity, resource owner, resource visibility) to view/edit/delete
permissions, plus the matching storage-query predicate.

Architecture:

  - Zero I/O: every function here is a pure computation, unit-testable
    without a database.
  - Single source of truth: handlers, services, and repositories all route
    authorization decisions through this package — never inline checks.
  - Predicate pushdown: list queries receive a SQL fragment from
    [ListFilter] so visibility scoping happens inside the paginated query,
    never as a post-fetch filter.
*/
package access

import (
	"fmt"

	"github.com/shelfmark/shelfmark/internal/platform/sec"
)

// # Visibility States

// Visibility controls who may view a resource.
type Visibility string

const (
	// VisibilityPublic resources are viewable by any caller, authenticated or not.
	VisibilityPublic Visibility = "PUBLIC"

	// VisibilityPrivate resources are viewable by the owner only.
	VisibilityPrivate Visibility = "PRIVATE"

	// VisibilityUnlisted resources are viewable by anyone holding a direct
	// link, but are excluded from public browse listings.
	VisibilityUnlisted Visibility = "UNLISTED"
)

// Valid reports whether v is one of the three supported states.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

// Values returns the allowed visibility strings for validation messages.
func Values() []string {
	return []string{string(VisibilityPublic), string(VisibilityPrivate), string(VisibilityUnlisted)}
}

// # Caller Identity

// Viewer is the identity a permission decision is made for.
//
// The zero value is the anonymous visitor.
type Viewer struct {
	// ID is the stable subject identifier from the identity provider.
	ID string
	// Authenticated reports whether the caller presented valid credentials.
	Authenticated bool
}

// Anonymous is the viewer for unauthenticated requests.
var Anonymous = Viewer{}

// ViewerFromClaims derives a [Viewer] from verified JWT claims.
// A nil claims pointer yields the anonymous viewer.
func ViewerFromClaims(claims *sec.AuthClaims) Viewer {
	if claims == nil {
		return Anonymous
	}
	return Viewer{ID: claims.UserID, Authenticated: true}
}

// IsOwner reports whether the viewer is the authenticated owner of a resource.
func (v Viewer) IsOwner(ownerID string) bool {
	return v.Authenticated && v.ID == ownerID
}

// # Permission Decisions

// CanView reports whether the viewer may read a resource.
//
// PUBLIC and UNLISTED resources are viewable by anyone holding the resource
// identifier; "has the link" is not otherwise checkable server-side. PRIVATE
// resources are owner-only.
func CanView(viewer Viewer, ownerID string, visibility Visibility) bool {
	if viewer.IsOwner(ownerID) {
		return true
	}

	switch visibility {
	case VisibilityPublic, VisibilityUnlisted:
		return true
	default:
		return false
	}
}

// CanEdit reports whether the viewer may mutate a resource.
// True iff the caller is authenticated and owns the resource; no exceptions.
func CanEdit(viewer Viewer, ownerID string) bool {
	return viewer.IsOwner(ownerID)
}

// CanDelete reports whether the viewer may delete a resource.
// Deletion follows the same rule as editing.
func CanDelete(viewer Viewer, ownerID string) bool {
	return CanEdit(viewer, ownerID)
}

// # Query Predicates

// ListFilter returns the SQL predicate scoping a browse/list query to what
// the viewer may see, with positional placeholders starting at argIndex.
//
// Anonymous callers see PUBLIC rows only. Authenticated callers additionally
// see every row they own, regardless of its visibility. UNLISTED rows never
// appear in listings of non-owners.
//
// # Usage
//
//	clause, args := access.ListFilter(viewer, col.Visibility, col.OwnerID, 1)
//	query := fmt.Sprintf("SELECT ... WHERE deletedat IS NULL AND %s", clause)
func ListFilter(viewer Viewer, visibilityColumn, ownerColumn string, argIndex int) (string, []any) {
	if !viewer.Authenticated {
		clause := fmt.Sprintf("%s = $%d", visibilityColumn, argIndex)
		return clause, []any{string(VisibilityPublic)}
	}

	clause := fmt.Sprintf("(%s = $%d OR %s = $%d)", visibilityColumn, argIndex, ownerColumn, argIndex+1)
	return clause, []any{string(VisibilityPublic), viewer.ID}
}
