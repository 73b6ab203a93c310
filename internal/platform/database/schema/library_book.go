// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package schema

// LibraryBookTable represents the 'library.book' table
type LibraryBookTable struct {
	Table            string
	ID               string
	OwnerID          string
	Title            string
	LongTitle        string
	Authors          string
	ISBN10           string
	ISBN13           string
	Publisher        string
	Synopsis         string
	PageCount        string
	PublishedOn      string
	Subjects         string
	Binding          string
	ImageURL         string
	OriginalImageURL string
	Visibility       string
	CreatedAt        string
	UpdatedAt        string
	DeletedAt        string
}

// LibraryBook is the schema definition for library.book
var LibraryBook = LibraryBookTable{
	Table:            "library.book",
	ID:               "id",
	OwnerID:          "ownerid",
	Title:            "title",
	LongTitle:        "longtitle",
	Authors:          "authors",
	ISBN10:           "isbn10",
	ISBN13:           "isbn13",
	Publisher:        "publisher",
	Synopsis:         "synopsis",
	PageCount:        "pagecount",
	PublishedOn:      "publishedon",
	Subjects:         "subjects",
	Binding:          "binding",
	ImageURL:         "imageurl",
	OriginalImageURL: "originalimageurl",
	Visibility:       "visibility",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
	DeletedAt:        "deletedat",
}
