// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package book

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/platform/database/schema"
	"github.com/shelfmark/shelfmark/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// bookColumns is the SELECT column list shared by every read query.
func bookColumns() string {
	t := schema.LibraryBook
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.OwnerID, t.Title, t.LongTitle, t.Authors, t.ISBN10, t.ISBN13, t.Publisher,
		t.Synopsis, t.PageCount, t.PublishedOn, t.Subjects, t.Binding, t.ImageURL,
		t.OriginalImageURL, t.Visibility, t.CreatedAt, t.UpdatedAt,
	)
}

func scanBook(row pgx.Row) (*Book, error) {
	b := &Book{}
	err := row.Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.LongTitle, &b.Authors, &b.ISBN10, &b.ISBN13,
		&b.Publisher, &b.Synopsis, &b.PageCount, &b.PublishedOn, &b.Subjects, &b.Binding,
		&b.ImageURL, &b.OriginalImageURL, &b.Visibility, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (repository *PostgresRepository) ListBooks(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*Book, int, error) {
	t := schema.LibraryBook

	// Visibility scoping happens inside the query, never post-fetch,
	// so pagination counts stay correct.
	visibilityClause, args := access.ListFilter(viewer, t.Visibility, t.OwnerID, 1)

	whereClause := fmt.Sprintf("%s IS NULL AND %s", t.DeletedAt, visibilityClause)

	if f.OwnerID != "" {
		whereClause += fmt.Sprintf(" AND %s = $%d", t.OwnerID, len(args)+1)
		args = append(args, f.OwnerID)
	}

	if f.Query != "" {
		searchTerm := "%" + f.Query + "%"
		whereClause += fmt.Sprintf(" AND (%s ILIKE $%d OR array_to_string(%s, ' ') ILIKE $%d)",
			t.Title, len(args)+1, t.Authors, len(args)+1)
		args = append(args, searchTerm)
	}

	if len(f.Subjects) > 0 {
		whereClause += fmt.Sprintf(" AND %s && $%d::text[]", t.Subjects, len(args)+1)
		args = append(args, f.Subjects)
	}

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", t.Table, whereClause)

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_books")
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s DESC LIMIT $%s OFFSET $%s",
		bookColumns(), t.Table, whereClause, t.CreatedAt,
		itos(len(args)+1), itos(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_books")
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_book")
		}
		books = append(books, b)
	}

	return books, total, nil
}

func (repository *PostgresRepository) GetBook(context context.Context, id string) (*Book, error) {
	t := schema.LibraryBook
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s IS NULL",
		bookColumns(), t.Table, t.ID, t.DeletedAt,
	)

	b, err := scanBook(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get_book")
	}
	return b, nil
}

func (repository *PostgresRepository) FindByISBN13(context context.Context, ownerID, isbn13 string) (*Book, error) {
	t := schema.LibraryBook
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s IS NULL",
		bookColumns(), t.Table, t.OwnerID, t.ISBN13, t.DeletedAt,
	)

	b, err := scanBook(repository.db.QueryRow(context, query, ownerID, isbn13))
	if err != nil {
		return nil, dberr.Wrap(err, "find_book_by_isbn13")
	}
	return b, nil
}

func (repository *PostgresRepository) CreateBook(context context.Context, b *Book) error {
	t := schema.LibraryBook
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING %s, %s
	`,
		t.Table, t.ID, t.OwnerID, t.Title, t.LongTitle, t.Authors, t.ISBN10, t.ISBN13,
		t.Publisher, t.Synopsis, t.PageCount, t.PublishedOn, t.Subjects, t.Binding,
		t.ImageURL, t.OriginalImageURL, t.Visibility, t.CreatedAt, t.UpdatedAt,
		t.CreatedAt, t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		b.ID, b.OwnerID, b.Title, b.LongTitle, b.Authors, b.ISBN10, b.ISBN13,
		b.Publisher, b.Synopsis, b.PageCount, b.PublishedOn, b.Subjects, b.Binding,
		b.ImageURL, b.OriginalImageURL, b.Visibility,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return dberr.Wrap(err, "create_book")
}

// BulkCreate inserts a batch of books in one transaction, skipping rows that
// collide with the per-owner ISBN-13 unique index.
//
// # Idempotency
//
// ON CONFLICT DO NOTHING makes re-submitting the same batch safe: rows
// created by an earlier attempt count as skips, never as duplicates errors.
// Per-row outcomes are tallied from the command tags of a pgx batch.
func (repository *PostgresRepository) BulkCreate(context context.Context, ownerID string, books []*Book) (*BulkResult, error) {
	t := schema.LibraryBook

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		ON CONFLICT (%s, %s) WHERE %s IS NOT NULL AND %s IS NULL DO NOTHING
	`,
		t.Table, t.ID, t.OwnerID, t.Title, t.LongTitle, t.Authors, t.ISBN10, t.ISBN13,
		t.Publisher, t.Synopsis, t.PageCount, t.PublishedOn, t.Subjects, t.Binding,
		t.ImageURL, t.OriginalImageURL, t.Visibility, t.CreatedAt, t.UpdatedAt,
		t.OwnerID, t.ISBN13, t.ISBN13, t.DeletedAt,
	)

	result := &BulkResult{Requested: len(books)}

	transaction, err := repository.db.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "bulk_create_begin")
	}
	defer func() { _ = transaction.Rollback(context) }()

	batch := &pgx.Batch{}
	for _, b := range books {
		batch.Queue(insertQuery,
			b.ID, ownerID, b.Title, b.LongTitle, b.Authors, b.ISBN10, b.ISBN13,
			b.Publisher, b.Synopsis, b.PageCount, b.PublishedOn, b.Subjects, b.Binding,
			b.ImageURL, b.OriginalImageURL, b.Visibility,
		)
	}

	br := transaction.SendBatch(context, batch)
	for range books {
		tag, execErr := br.Exec()
		if execErr != nil {
			_ = br.Close()
			return result, dberr.Wrap(execErr, "bulk_create_exec")
		}
		if tag.RowsAffected() > 0 {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	if err := br.Close(); err != nil {
		return result, dberr.Wrap(err, "bulk_create_close")
	}

	if err := transaction.Commit(context); err != nil {
		return result, dberr.Wrap(err, "bulk_create_commit")
	}

	return result, nil
}

func (repository *PostgresRepository) UpdateBook(context context.Context, b *Book) error {
	t := schema.LibraryBook
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9,
		    %s = $10, %s = $11, %s = $12, %s = $13, %s = $14, %s = $15, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s
	`,
		t.Table, t.Title, t.LongTitle, t.Authors, t.ISBN10, t.ISBN13, t.Publisher,
		t.Synopsis, t.PageCount, t.PublishedOn, t.Subjects, t.Binding, t.ImageURL,
		t.OriginalImageURL, t.Visibility, t.UpdatedAt,
		t.ID, t.DeletedAt,
		t.UpdatedAt,
	)

	err := repository.db.QueryRow(context, query,
		b.ID, b.Title, b.LongTitle, b.Authors, b.ISBN10, b.ISBN13, b.Publisher,
		b.Synopsis, b.PageCount, b.PublishedOn, b.Subjects, b.Binding, b.ImageURL,
		b.OriginalImageURL, b.Visibility,
	).Scan(&b.UpdatedAt)
	return dberr.Wrap(err, "update_book")
}

func (repository *PostgresRepository) DeleteBook(context context.Context, id string) error {
	t := schema.LibraryBook
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = $1 AND %s IS NULL",
		t.Table, t.DeletedAt, t.ID, t.DeletedAt,
	)

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_book")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func itos(i int) string {
	return strconv.Itoa(i)
}
