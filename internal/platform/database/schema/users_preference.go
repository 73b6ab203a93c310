// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

package schema

// UserPreferenceTable represents the 'users.preference' table
type UserPreferenceTable struct {
	Table             string
	UserID            string
	DefaultVisibility string
	BooksPerPage      string
	ShelfSort         string
	UpdatedAt         string
}

// UserPreference is the schema definition for users.preference
var UserPreference = UserPreferenceTable{
	Table:             "users.preference",
	UserID:            "userid",
	DefaultVisibility: "defaultvisibility",
	BooksPerPage:      "booksperpage",
	ShelfSort:         "shelfsort",
	UpdatedAt:         "updatedat",
}
