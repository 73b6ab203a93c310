// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package importer

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/catalog/resolver"
	"github.com/shelfmark/shelfmark/internal/library/access"
	"github.com/shelfmark/shelfmark/internal/library/book"
)

// BookSubmitter adapts the book service's bulk import to the [Submitter]
// contract for a fixed owner. Imported books start PRIVATE; visibility is a
// deliberate post-import decision, never an import default.
type BookSubmitter struct {
	books   *book.Service
	ownerID string
}

// NewBookSubmitter constructs a [BookSubmitter] for one owner's shelf.
func NewBookSubmitter(books *book.Service, ownerID string) *BookSubmitter {
	return &BookSubmitter{books: books, ownerID: ownerID}
}

// Submit commits the batch through the book service.
func (submitter *BookSubmitter) Submit(context context.Context, batch []resolver.Candidate) (*book.BulkResult, error) {
	inputs := make([]book.Input, len(batch))
	for i, c := range batch {
		inputs[i] = book.Input{
			Title:            c.Title,
			LongTitle:        c.LongTitle,
			Authors:          c.Authors,
			ISBN10:           c.ISBN10,
			ISBN13:           c.ISBN13,
			Publisher:        c.Publisher,
			Synopsis:         c.Synopsis,
			PageCount:        c.PageCount,
			PublishedOn:      c.PublishedOn,
			Subjects:         c.Subjects,
			Binding:          c.Binding,
			ImageURL:         c.ImageURL,
			OriginalImageURL: c.OriginalImageURL,
			Visibility:       access.VisibilityPrivate,
		}
	}

	return submitter.books.Import(context, submitter.ownerID, inputs)
}
