// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package schema

// LibraryReadingListEntryTable represents the 'library.readinglistentry' table
type LibraryReadingListEntryTable struct {
	Table    string
	ListID   string
	BookID   string
	Position string
	Note     string
	AddedAt  string
}

// LibraryReadingListEntry is the schema definition for library.readinglistentry
var LibraryReadingListEntry = LibraryReadingListEntryTable{
	Table:    "library.readinglistentry",
	ListID:   "listid",
	BookID:   "bookid",
	Position: "position",
	Note:     "note",
	AddedAt:  "addedat",
}
