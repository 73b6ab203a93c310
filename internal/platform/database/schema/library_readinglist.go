// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package schema

// LibraryReadingListTable represents the 'library.readinglist' table
type LibraryReadingListTable struct {
	Table       string
	ID          string
	OwnerID     string
	Title       string
	Slug        string
	Description string
	CoverURL    string
	Visibility  string
	Version     string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// LibraryReadingList is the schema definition for library.readinglist
var LibraryReadingList = LibraryReadingListTable{
	Table:       "library.readinglist",
	ID:          "id",
	OwnerID:     "ownerid",
	Title:       "title",
	Slug:        "slug",
	Description: "description",
	CoverURL:    "coverurl",
	Visibility:  "visibility",
	Version:     "version",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}
