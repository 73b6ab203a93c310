// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package list

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/library/book"
	"github.com/shelfmark/shelfmark/internal/platform/apperr"
	"github.com/shelfmark/shelfmark/internal/platform/database/schema"
	"github.com/shelfmark/shelfmark/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// listColumns is the SELECT column list shared by every list read query.
func listColumns() string {
	t := schema.LibraryReadingList
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.OwnerID, t.Title, t.Slug, t.Description, t.CoverURL,
		t.Visibility, t.Version, t.CreatedAt, t.UpdatedAt,
	)
}

func scanList(row pgx.Row) (*ReadingList, error) {
	l := &ReadingList{}
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Slug, &l.Description, &l.CoverURL,
		&l.Visibility, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// # List CRUD

func (repository *PostgresRepository) ListLists(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*ReadingList, int, error) {
	t := schema.LibraryReadingList

	visibilityClause, args := access.ListFilter(viewer, t.Visibility, t.OwnerID, 1)
	whereClause := fmt.Sprintf("%s IS NULL AND %s", t.DeletedAt, visibilityClause)

	if f.OwnerID != "" {
		whereClause += fmt.Sprintf(" AND %s = $%d", t.OwnerID, len(args)+1)
		args = append(args, f.OwnerID)
	}

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", t.Table, whereClause)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_lists")
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		listColumns(), t.Table, whereClause, t.CreatedAt, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_lists")
	}
	defer rows.Close()

	var lists []*ReadingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_list")
		}
		lists = append(lists, l)
	}

	return lists, total, nil
}

func (repository *PostgresRepository) GetList(context context.Context, id string) (*ReadingList, error) {
	t := schema.LibraryReadingList
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL",
		listColumns(), t.Table, t.ID, t.DeletedAt,
	)

	l, err := scanList(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_list")
	}
	return l, nil
}

func (repository *PostgresRepository) FindBySlug(context context.Context, ownerID, slug string) (*ReadingList, error) {
	t := schema.LibraryReadingList
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s IS NULL",
		listColumns(), t.Table, t.OwnerID, t.Slug, t.DeletedAt,
	)

	l, err := scanList(repository.db.QueryRow(context, query, ownerID, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "find_list_by_slug")
	}
	return l, nil
}

func (repository *PostgresRepository) CreateList(context context.Context, l *ReadingList) error {
	t := schema.LibraryReadingList
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW())
		RETURNING %s, %s, %s
	`,
		t.Table, t.ID, t.OwnerID, t.Title, t.Slug, t.Description, t.CoverURL,
		t.Visibility, t.Version, t.CreatedAt, t.UpdatedAt,
		t.Version, t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		l.ID, l.OwnerID, l.Title, l.Slug, l.Description, l.CoverURL, l.Visibility,
	).Scan(&l.Version, &l.CreatedAt, &l.UpdatedAt)
	return dberr.Wrap(err, "create_list")
}

func (repository *PostgresRepository) UpdateList(context context.Context, l *ReadingList) error {
	t := schema.LibraryReadingList
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		t.Table, t.Title, t.Slug, t.Description, t.CoverURL, t.Visibility, t.UpdatedAt,
		t.ID, t.DeletedAt,
		t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		l.ID, l.Title, l.Slug, l.Description, l.CoverURL, l.Visibility,
	).Scan(&l.UpdatedAt)
	return dberr.Wrap(err, "update_list")
}

func (repository *PostgresRepository) DeleteList(context context.Context, id string) error {
	t := schema.LibraryReadingList
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL",
		t.Table, t.DeletedAt, t.ID, t.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_list")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Entry Reads

func (repository *PostgresRepository) ListEntries(context context.Context, listID string) ([]*Entry, error) {
	e := schema.LibraryReadingListEntry
	b := schema.LibraryBook

	query := fmt.Sprintf(`
		SELECT e.%s, e.%s, e.%s, e.%s, e.%s,
		       b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s, b.%s
		FROM %s e
		JOIN %s b ON b.%s = e.%s
		WHERE e.%s = $1 AND b.%s IS NULL
		ORDER BY e.%s ASC
	`,
		e.ListID, e.BookID, e.Position, e.Note, e.AddedAt,
		b.ID, b.OwnerID, b.Title, b.LongTitle, b.Authors, b.ISBN10, b.ISBN13, b.Publisher,
		b.Synopsis, b.PageCount, b.PublishedOn, b.Subjects, b.Binding, b.ImageURL,
		b.OriginalImageURL, b.Visibility, b.CreatedAt, b.UpdatedAt,
		e.Table,
		b.Table, b.ID, e.BookID,
		e.ListID, b.DeletedAt,
		e.Position,
	)

	rows, err := repository.db.Query(context, query, listID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_entries")
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{Book: &book.Book{}}
		bk := entry.Book
		if err := rows.Scan(
			&entry.ListID, &entry.BookID, &entry.Position, &entry.Note, &entry.AddedAt,
			&bk.ID, &bk.OwnerID, &bk.Title, &bk.LongTitle, &bk.Authors, &bk.ISBN10, &bk.ISBN13,
			&bk.Publisher, &bk.Synopsis, &bk.PageCount, &bk.PublishedOn, &bk.Subjects, &bk.Binding,
			&bk.ImageURL, &bk.OriginalImageURL, &bk.Visibility, &bk.CreatedAt, &bk.UpdatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// # Entry Mutations
//
// Every mutation locks the parent list row first (version bump with
// RETURNING), so concurrent add/remove/reorder on the same list serialize
// instead of interleaving position writes.

// lockList bumps the list version inside tx, acquiring the row lock.
// It returns the new version, or NotFound if the list does not exist.
func lockList(ctx context.Context, tx pgx.Tx, listID string) (int64, error) {
	t := schema.LibraryReadingList
	query := fmt.Sprintf(
		"UPDATE %s SET %s = %s + 1, %s = NOW() WHERE %s = $1 AND %s IS NULL RETURNING %s",
		t.Table, t.Version, t.Version, t.UpdatedAt, t.ID, t.DeletedAt, t.Version,
	)

	var version int64
	if err := tx.QueryRow(ctx, query, listID).Scan(&version); err != nil {
		return 0, dberr.Wrap(err, "lock_list")
	}
	return version, nil
}

func (repository *PostgresRepository) AddEntry(context context.Context, listID, bookID string, note *string) (*Entry, error) {
	e := schema.LibraryReadingListEntry

	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "add_entry_begin")
	}
	defer func() { _ = transaction.Rollback(context) }()

	if _, err := lockList(context, transaction, listID); err != nil {
		return nil, err
	}

	// Append at max(position)+1, or 0 for an empty list.
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		SELECT $1, $2, COALESCE(MAX(%s) + 1, 0), $3, NOW()
		FROM %s WHERE %s = $1
		RETURNING %s, %s
	`,
		e.Table, e.ListID, e.BookID, e.Position, e.Note, e.AddedAt,
		e.Position,
		e.Table, e.ListID,
		e.Position, e.AddedAt,
	)

	entry := &Entry{ListID: listID, BookID: bookID, Note: note}
	if err := transaction.QueryRow(context, insertQuery, listID, bookID, note).Scan(&entry.Position, &entry.AddedAt); err != nil {
		return nil, dberr.Wrap(err, "add_entry")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "add_entry_commit")
	}

	return entry, nil
}

func (repository *PostgresRepository) RemoveEntry(context context.Context, listID, bookID string) error {
	e := schema.LibraryReadingListEntry

	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "remove_entry_begin")
	}
	defer func() { _ = transaction.Rollback(context) }()

	if _, err := lockList(context, transaction, listID); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2 RETURNING %s",
		e.Table, e.ListID, e.BookID, e.Position,
	)

	var removedPosition int
	if err := transaction.QueryRow(context, deleteQuery, listID, bookID).Scan(&removedPosition); err != nil {
		return dberr.Wrap(err, "remove_entry")
	}

	// Close the gap: every entry after the removed one shifts down by one.
	renumberQuery := fmt.Sprintf("UPDATE %s SET %s = %s - 1 WHERE %s = $1 AND %s > $2",
		e.Table, e.Position, e.Position, e.ListID, e.Position,
	)
	if _, err := transaction.Exec(context, renumberQuery, listID, removedPosition); err != nil {
		return dberr.Wrap(err, "remove_entry_renumber")
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "remove_entry_commit")
	}

	return nil
}

func (repository *PostgresRepository) SetNote(context context.Context, listID, bookID string, note *string) error {
	e := schema.LibraryReadingListEntry
	query := fmt.Sprintf("UPDATE %s SET %s = $3 WHERE %s = $1 AND %s = $2",
		e.Table, e.Note, e.ListID, e.BookID,
	)

	cmd, err := repository.db.Exec(context, query, listID, bookID, note)
	if err != nil {
		return dberr.Wrap(err, "set_note")
	}
	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) Reorder(context context.Context, listID string, orderedBookIDs []string, expectedVersion int64) (*ReadingList, error) {
	t := schema.LibraryReadingList
	e := schema.LibraryReadingListEntry

	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "reorder_begin")
	}
	defer func() { _ = transaction.Rollback(context) }()

	// Lock the row and check the caller's version in one statement. Zero rows
	// means either the list is gone or the version is stale.
	lockQuery := fmt.Sprintf(
		"UPDATE %s SET %s = %s + 1, %s = NOW() WHERE %s = $1 AND %s = $2 AND %s IS NULL RETURNING %s",
		t.Table, t.Version, t.Version, t.UpdatedAt, t.ID, t.Version, t.DeletedAt, t.Version,
	)

	var newVersion int64
	if err := transaction.QueryRow(context, lockQuery, listID, expectedVersion).Scan(&newVersion); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.classifyReorderMiss(context, listID)
		}
		return nil, dberr.Wrap(err, "reorder_lock")
	}

	// The new order must be a permutation of the current membership.
	var entryCount int
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = $1", e.Table, e.ListID)
	if err := transaction.QueryRow(context, countQuery, listID).Scan(&entryCount); err != nil {
		return nil, dberr.Wrap(err, "reorder_count")
	}
	if entryCount != len(orderedBookIDs) {
		return nil, apperr.ValidationError("Ordering must include every entry in the list exactly once")
	}

	// Rewrite positions 0..n-1 in one statement. The unique constraint on
	// (listid, position) is deferred, so intermediate collisions are fine.
	rewriteQuery := fmt.Sprintf(`
		UPDATE %s AS e
		SET %s = u.newposition
		FROM (
			SELECT unnest($2::uuid[]) AS bookid,
			       generate_subscripts($2::uuid[], 1) - 1 AS newposition
		) u
		WHERE e.%s = $1 AND e.%s = u.bookid
	`,
		e.Table, e.Position, e.ListID, e.BookID,
	)

	cmd, err := transaction.Exec(context, rewriteQuery, listID, orderedBookIDs)
	if err != nil {
		return nil, dberr.Wrap(err, "reorder_rewrite")
	}
	if int(cmd.RowsAffected()) != entryCount {
		return nil, apperr.ValidationError("Ordering must include every entry in the list exactly once")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "reorder_commit")
	}

	return repository.GetList(context, listID)
}

// classifyReorderMiss distinguishes "list gone" from "stale version" after a
// zero-row version-checked lock.
func (repository *PostgresRepository) classifyReorderMiss(ctx context.Context, listID string) error {
	if _, err := repository.GetList(ctx, listID); err != nil {
		return err
	}
	return apperr.Conflict("List was modified by another request; refetch and retry")
}
