// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package list

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/pkg/pointer"
)

const (
	listOwnerID = "0194d3a2-0000-7000-8000-0000000000aa"
	strangerID  = "0194d3a2-0000-7000-8000-0000000000bb"
)

var (
	owner    = access.Viewer{ID: listOwnerID, Authenticated: true}
	stranger = access.Viewer{ID: strangerID, Authenticated: true}
)

// fakeListRepository is an in-memory Repository that mirrors the storage
// layer's position and version semantics so ordering invariants can be
// exercised without a database.
type fakeListRepository struct {
	lists   map[string]*ReadingList
	entries map[string][]*Entry // keyed by list ID, kept position-ordered
	books   map[string]*book.Book
}

func newFakeListRepository() *fakeListRepository {
	return &fakeListRepository{
		lists:   map[string]*ReadingList{},
		entries: map[string][]*Entry{},
		books:   map[string]*book.Book{},
	}
}

func (f *fakeListRepository) ListLists(_ context.Context, viewer access.Viewer, _ Filter, _, _ int) ([]*ReadingList, int, error) {
	var out []*ReadingList
	for _, l := range f.lists {
		if viewer.IsOwner(l.OwnerID) || l.Visibility == access.VisibilityPublic {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (f *fakeListRepository) GetList(_ context.Context, id string) (*ReadingList, error) {
	l, ok := f.lists[id]
	if !ok {
		return nil, apperr.NotFound("Reading list")
	}
	return l, nil
}

func (f *fakeListRepository) FindBySlug(_ context.Context, ownerID, slug string) (*ReadingList, error) {
	for _, l := range f.lists {
		if l.OwnerID == ownerID && l.Slug == slug {
			return l, nil
		}
	}
	return nil, apperr.NotFound("Reading list")
}

func (f *fakeListRepository) CreateList(_ context.Context, l *ReadingList) error {
	l.Version = 1
	f.lists[l.ID] = l
	return nil
}

func (f *fakeListRepository) UpdateList(_ context.Context, l *ReadingList) error {
	if _, ok := f.lists[l.ID]; !ok {
		return apperr.NotFound("Reading list")
	}
	f.lists[l.ID] = l
	return nil
}

func (f *fakeListRepository) DeleteList(_ context.Context, id string) error {
	if _, ok := f.lists[id]; !ok {
		return apperr.NotFound("Reading list")
	}
	delete(f.lists, id)
	delete(f.entries, id)
	return nil
}

func (f *fakeListRepository) ListEntries(_ context.Context, listID string) ([]*Entry, error) {
	entries := f.entries[listID]
	for _, e := range entries {
		e.Book = f.books[e.BookID]
	}
	return entries, nil
}

func (f *fakeListRepository) AddEntry(_ context.Context, listID, bookID string, note *string) (*Entry, error) {
	for _, e := range f.entries[listID] {
		if e.BookID == bookID {
			return nil, apperr.Conflict("duplicate entry")
		}
	}

	entry := &Entry{
		ListID:   listID,
		BookID:   bookID,
		Position: len(f.entries[listID]),
		Note:     note,
	}
	f.entries[listID] = append(f.entries[listID], entry)
	f.lists[listID].Version++
	return entry, nil
}

func (f *fakeListRepository) RemoveEntry(_ context.Context, listID, bookID string) error {
	entries := f.entries[listID]
	idx := -1
	for i, e := range entries {
		if e.BookID == bookID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.NotFound("Entry")
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	for i, e := range entries {
		e.Position = i
	}
	f.entries[listID] = entries
	f.lists[listID].Version++
	return nil
}

func (f *fakeListRepository) SetNote(_ context.Context, listID, bookID string, note *string) error {
	for _, e := range f.entries[listID] {
		if e.BookID == bookID {
			e.Note = note
			return nil
		}
	}
	return apperr.NotFound("Entry")
}

func (f *fakeListRepository) Reorder(_ context.Context, listID string, orderedBookIDs []string, expectedVersion int64) (*ReadingList, error) {
	l, ok := f.lists[listID]
	if !ok {
		return nil, apperr.NotFound("Reading list")
	}
	if l.Version != expectedVersion {
		return nil, apperr.Conflict("stale version")
	}

	current := f.entries[listID]
	if len(current) != len(orderedBookIDs) {
		return nil, apperr.ValidationError("not a permutation")
	}

	byBook := map[string]*Entry{}
	for _, e := range current {
		byBook[e.BookID] = e
	}

	reordered := make([]*Entry, 0, len(orderedBookIDs))
	for i, id := range orderedBookIDs {
		e, ok := byBook[id]
		if !ok {
			return nil, apperr.ValidationError("not a permutation")
		}
		e.Position = i
		reordered = append(reordered, e)
	}

	f.entries[listID] = reordered
	l.Version++
	return l, nil
}

// fakeBookRepo adapts the fake's book map to the book.Repository contract.
type fakeBookRepo struct{ books map[string]*book.Book }

func (f *fakeBookRepo) ListBooks(context.Context, access.Viewer, book.Filter, int, int) ([]*book.Book, int, error) {
	return nil, 0, nil
}

func (f *fakeBookRepo) GetBook(_ context.Context, id string) (*book.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, apperr.NotFound("Book")
	}
	return b, nil
}

func (f *fakeBookRepo) FindByISBN13(context.Context, string, string) (*book.Book, error) {
	return nil, apperr.NotFound("Book")
}

func (f *fakeBookRepo) CreateBook(context.Context, *book.Book) error { return nil }

func (f *fakeBookRepo) BulkCreate(context.Context, string, []*book.Book) (*book.BulkResult, error) {
	return &book.BulkResult{}, nil
}

func (f *fakeBookRepo) UpdateBook(context.Context, *book.Book) error { return nil }
func (f *fakeBookRepo) DeleteBook(context.Context, string) error     { return nil }

func newListTestService() (*Service, *fakeListRepository) {
	repo := newFakeListRepository()
	return NewService(repo, &fakeBookRepo{books: repo.books}, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func seedList(repo *fakeListRepository, visibility access.Visibility) *ReadingList {
	l := &ReadingList{
		ID:         "list-" + string(visibility),
		OwnerID:    listOwnerID,
		Title:      "Seeded",
		Slug:       "seeded",
		Visibility: visibility,
		Version:    1,
	}
	repo.lists[l.ID] = l
	return l
}

func seedListBook(repo *fakeListRepository, id string, visibility access.Visibility) *book.Book {
	b := &book.Book{ID: id, OwnerID: listOwnerID, Title: id, Visibility: visibility}
	repo.books[id] = b
	return b
}

// positions extracts the position multiset of a list's entries.
func positions(repo *fakeListRepository, listID string) []int {
	out := make([]int, 0, len(repo.entries[listID]))
	for _, e := range repo.entries[listID] {
		out = append(out, e.Position)
	}
	sort.Ints(out)
	return out
}

/*
TestPositionDensity verifies the core ordering invariant: after any sequence
of add/remove/reorder, positions are exactly {0..n-1}.
*/
func TestPositionDensity(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPrivate)
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		seedListBook(repo, id, access.VisibilityPrivate)
		_, err := service.AddEntry(ctx, owner, l.ID, id, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, positions(repo, l.ID))

	// Remove from the middle: tail must shift down.
	require.NoError(t, service.RemoveEntry(ctx, owner, l.ID, "b2"))
	assert.Equal(t, []int{0, 1, 2}, positions(repo, l.ID))

	// Reorder with the current version: still dense afterwards.
	_, err := service.Reorder(ctx, owner, l.ID, []string{"b4", "b1", "b3"}, repo.lists[l.ID].Version)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, positions(repo, l.ID))

	entries, _ := repo.ListEntries(ctx, l.ID)
	assert.Equal(t, "b4", entries[0].BookID)
	assert.Equal(t, "b1", entries[1].BookID)
	assert.Equal(t, "b3", entries[2].BookID)
}

/*
TestReorderConflict verifies the optimistic concurrency protocol: a stale
version is rejected with a conflict and the caller recovers by refetching.
*/
func TestReorderConflict(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPrivate)
	for _, id := range []string{"b1", "b2", "b3", "b4"} {
		seedListBook(repo, id, access.VisibilityPrivate)
		_, err := service.AddEntry(ctx, owner, l.ID, id, nil)
		require.NoError(t, err)
	}

	staleVersion := repo.lists[l.ID].Version

	// A concurrent mutation lands first and bumps the version.
	require.NoError(t, service.RemoveEntry(ctx, owner, l.ID, "b4"))

	// The reversal built against the stale snapshot must be rejected.
	_, err := service.Reorder(ctx, owner, l.ID, []string{"b4", "b3", "b2", "b1"}, staleVersion)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConflict, apperr.Code(err))

	// The server's order survives untouched.
	entries, _ := repo.ListEntries(ctx, l.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, "b1", entries[0].BookID)
	assert.Equal(t, "b2", entries[1].BookID)
	assert.Equal(t, "b3", entries[2].BookID)

	// Recovery: refetch the authoritative state, then reorder from it.
	detail, err := service.Get(ctx, owner, l.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(detail.Entries))
	for i := len(detail.Entries) - 1; i >= 0; i-- {
		ids = append(ids, detail.Entries[i].BookID)
	}

	updated, err := service.Reorder(ctx, owner, l.ID, ids, detail.Version)
	require.NoError(t, err)
	assert.Greater(t, updated.Version, detail.Version)
}

/*
TestReorderValidation covers the permutation and ownership guards.
*/
func TestReorderValidation(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPublic)
	seedListBook(repo, "b1", access.VisibilityPublic)
	seedListBook(repo, "b2", access.VisibilityPublic)
	_, err := service.AddEntry(ctx, owner, l.ID, "b1", nil)
	require.NoError(t, err)
	_, err = service.AddEntry(ctx, owner, l.ID, "b2", nil)
	require.NoError(t, err)

	version := repo.lists[l.ID].Version

	t.Run("empty_ordering_rejected", func(t *testing.T) {
		_, err := service.Reorder(ctx, owner, l.ID, nil, version)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("incomplete_ordering_rejected", func(t *testing.T) {
		_, err := service.Reorder(ctx, owner, l.ID, []string{"b1"}, version)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("stranger_rejected", func(t *testing.T) {
		_, err := service.Reorder(ctx, stranger, l.ID, []string{"b2", "b1"}, version)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.Code(err))
	})

	t.Run("anonymous_gets_not_found", func(t *testing.T) {
		_, err := service.Reorder(ctx, access.Anonymous, l.ID, []string{"b2", "b1"}, version)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
	})
}

/*
TestNestedVisibility verifies that a public list containing a private book
hides that entry from everyone but the owner.
*/
func TestNestedVisibility(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPublic)
	seedListBook(repo, "public-book", access.VisibilityPublic)
	seedListBook(repo, "private-book", access.VisibilityPrivate)

	_, err := service.AddEntry(ctx, owner, l.ID, "public-book", nil)
	require.NoError(t, err)
	_, err = service.AddEntry(ctx, owner, l.ID, "private-book", nil)
	require.NoError(t, err)

	t.Run("owner_sees_both", func(t *testing.T) {
		detail, err := service.Get(ctx, owner, l.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Entries, 2)
	})

	t.Run("anonymous_sees_public_only", func(t *testing.T) {
		detail, err := service.Get(ctx, access.Anonymous, l.ID)
		require.NoError(t, err)
		require.Len(t, detail.Entries, 1)
		assert.Equal(t, "public-book", detail.Entries[0].BookID)
	})

	t.Run("stranger_sees_public_only", func(t *testing.T) {
		detail, err := service.Get(ctx, stranger, l.ID)
		require.NoError(t, err)
		require.Len(t, detail.Entries, 1)
		assert.Equal(t, "public-book", detail.Entries[0].BookID)
	})
}

/*
TestSetNote covers the length bound and ownership.
*/
func TestSetNote(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPrivate)
	seedListBook(repo, "b1", access.VisibilityPrivate)
	_, err := service.AddEntry(ctx, owner, l.ID, "b1", nil)
	require.NoError(t, err)

	t.Run("note_persisted", func(t *testing.T) {
		require.NoError(t, service.SetNote(ctx, owner, l.ID, "b1", pointer.To("re-read chapter 3")))
		entries, _ := repo.ListEntries(ctx, l.ID)
		require.NotNil(t, entries[0].Note)
		assert.Equal(t, "re-read chapter 3", *entries[0].Note)
	})

	t.Run("note_does_not_touch_positions", func(t *testing.T) {
		assert.Equal(t, []int{0}, positions(repo, l.ID))
	})

	t.Run("oversized_note_rejected", func(t *testing.T) {
		long := make([]byte, MaxNoteLength+1)
		for i := range long {
			long[i] = 'a'
		}
		err := service.SetNote(ctx, owner, l.ID, "b1", pointer.To(string(long)))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.Code(err))
	})

	t.Run("stranger_rejected", func(t *testing.T) {
		err := service.SetNote(ctx, stranger, l.ID, "b1", pointer.To("nope"))
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.Code(err))
	})
}

/*
TestAddEntryGuards covers duplicate entries and invisible books.
*/
func TestAddEntryGuards(t *testing.T) {
	service, repo := newListTestService()
	ctx := context.Background()

	l := seedList(repo, access.VisibilityPrivate)
	seedListBook(repo, "b1", access.VisibilityPrivate)

	t.Run("duplicate_rejected", func(t *testing.T) {
		_, err := service.AddEntry(ctx, owner, l.ID, "b1", nil)
		require.NoError(t, err)
		_, err = service.AddEntry(ctx, owner, l.ID, "b1", nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeConflict, apperr.Code(err))
	})

	t.Run("unknown_book_rejected", func(t *testing.T) {
		_, err := service.AddEntry(ctx, owner, l.ID, "missing", nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.Code(err))
	})
}
