// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package book

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/library/access"
)

type Repository interface {
	ListBooks(context context.Context, viewer access.Viewer, f Filter, limit, offset int) ([]*Book, int, error)
	GetBook(context context.Context, id string) (*Book, error)
	FindByISBN13(context context.Context, ownerID, isbn13 string) (*Book, error)
	CreateBook(context context.Context, b *Book) error
	BulkCreate(context context.Context, ownerID string, books []*Book) (*BulkResult, error)
	UpdateBook(context context.Context, b *Book) error
	DeleteBook(context context.Context, id string) error
}
