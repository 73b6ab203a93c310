// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfmark/shelfmark/internal/platform/database/schema"
	"github.com/shelfmark/shelfmark/internal/platform/dberr"
)

// PostgresPreferencesRepository stores library preferences in PostgreSQL.
type PostgresPreferencesRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPreferencesRepository(db *pgxpool.Pool) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{db: db}
}

func (repository *PostgresPreferencesRepository) FindByUserID(context context.Context, userID string) (*Preferences, error) {
	t := schema.UserPreference
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1",
		t.UserID, t.DefaultVisibility, t.BooksPerPage, t.ShelfSort, t.UpdatedAt,
		t.Table, t.UserID,
	)

	prefs := &Preferences{}
	err := repository.db.QueryRow(context, query, userID).Scan(
		&prefs.UserID, &prefs.DefaultVisibility, &prefs.BooksPerPage,
		&prefs.ShelfSort, &prefs.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_preferences")
	}
	return prefs, nil
}

func (repository *PostgresPreferencesRepository) Upsert(context context.Context, prefs *Preferences) error {
	t := schema.UserPreference
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s
	`,
		t.Table, t.UserID, t.DefaultVisibility, t.BooksPerPage, t.ShelfSort, t.UpdatedAt,
		t.UserID,
		t.DefaultVisibility, t.DefaultVisibility,
		t.BooksPerPage, t.BooksPerPage,
		t.ShelfSort, t.ShelfSort,
		t.UpdatedAt, t.UpdatedAt,
	)

	_, err := repository.db.Exec(context, query,
		prefs.UserID, prefs.DefaultVisibility, prefs.BooksPerPage, prefs.ShelfSort, prefs.UpdatedAt,
	)
	return dberr.Wrap(err, "upsert_preferences")
}
