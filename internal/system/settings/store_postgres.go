// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfmark/shelfmark/internal/platform/database/schema"
	"github.com/shelfmark/shelfmark/internal/platform/dberr"
)

// PostgresSettingRepository stores application settings in PostgreSQL.
type PostgresSettingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSettingRepository(db *pgxpool.Pool) *PostgresSettingRepository {
	return &PostgresSettingRepository{db: db}
}

// Get reads a setting, creating the row with an empty value on first read.
// The INSERT .. ON CONFLICT DO NOTHING followed by RETURNING would return
// zero rows for the existing-row case, so the read is a separate statement.
func (repository *PostgresSettingRepository) Get(context context.Context, key string) (*Setting, error) {
	t := schema.SystemSetting

	seed := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES ($1, '', NOW()) ON CONFLICT (%s) DO NOTHING",
		t.Table, t.Key, t.Value, t.UpdatedAt, t.Key,
	)
	if _, err := repository.db.Exec(context, seed, key); err != nil {
		return nil, dberr.Wrap(err, "seed_setting")
	}

	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s = $1",
		t.Key, t.Value, t.UpdatedAt, t.Table, t.Key,
	)

	setting := &Setting{}
	err := repository.db.QueryRow(context, query, key).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_setting")
	}
	return setting, nil
}

func (repository *PostgresSettingRepository) Set(context context.Context, key, value string) (*Setting, error) {
	t := schema.SystemSetting
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
		RETURNING %s, %s, %s
	`,
		t.Table, t.Key, t.Value, t.UpdatedAt,
		t.Key, t.Value, t.Value, t.UpdatedAt,
		t.Key, t.Value, t.UpdatedAt,
	)

	setting := &Setting{}
	err := repository.db.QueryRow(context, query, key, value).Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "set_setting")
	}
	return setting, nil
}
