package books

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/display"
	"github.com/lectiohq/lectio/pkg/models"
)

// Column names returned by MergeFields.
const (
	ColumnTitle              = "title"
	ColumnAuthor             = "author"
	ColumnISBN               = "isbn"
	ColumnGoogleBooksID      = "google_books_id"
	ColumnOpenLibraryWork    = "openlibrary_work_key"
	ColumnOpenLibraryEdition = "openlibrary_edition_key"
	ColumnOpenLibraryCoverID = "openlibrary_cover_id"
	ColumnCoverURL           = "cover_url"
	ColumnDescription        = "description"
	ColumnTotalPages         = "total_pages"
)

// NewBook builds the row inserted for fields that matched no existing book.
func NewBook(f Fields) *models.Book {
	book := &models.Book{Title: FallbackTitle}
	MergeFields(book, f)
	return book
}

// MergeFields fills the columns of book that are absent or bad with the good
// values in f and returns the names of the columns it changed. A column that
// already holds a good value is never touched, so merging is monotonic and
// the order in which records are merged does not matter.
func MergeFields(book *models.Book, f Fields) []string {
	var changed []string

	if f.Title != "" && !IsGoodTitle(book.Title) && book.Title != f.Title {
		book.Title = f.Title
		changed = append(changed, ColumnTitle)
	}
	if f.Author != "" && (book.Author == nil || display.IsBadAuthor(*book.Author)) {
		book.Author = &f.Author
		changed = append(changed, ColumnAuthor)
	}
	if fillString(&book.ISBN, f.ISBN) {
		changed = append(changed, ColumnISBN)
	}
	if fillString(&book.GoogleBooksID, f.GoogleID) {
		changed = append(changed, ColumnGoogleBooksID)
	}
	if fillString(&book.OpenLibraryWorkKey, f.WorkKey) {
		changed = append(changed, ColumnOpenLibraryWork)
	}
	if fillString(&book.OpenLibraryEditionKey, f.EditionKey) {
		changed = append(changed, ColumnOpenLibraryEdition)
	}
	if fillPositive(&book.OpenLibraryCoverID, f.CoverID) {
		changed = append(changed, ColumnOpenLibraryCoverID)
	}
	if f.CoverURL != "" && (book.CoverURL == nil || display.IsBadCoverURL(*book.CoverURL)) {
		book.CoverURL = &f.CoverURL
		changed = append(changed, ColumnCoverURL)
	}
	if fillString(&book.Description, f.Description) {
		changed = append(changed, ColumnDescription)
	}
	if fillPositive(&book.TotalPages, f.Pages) {
		changed = append(changed, ColumnTotalPages)
	}

	return changed
}

// IsGoodTitle reports whether a stored title is a real title.
func IsGoodTitle(title string) bool {
	return !display.IsBadTitle(title) && !strings.EqualFold(strings.TrimSpace(title), FallbackTitle)
}

func fillString(dst **string, v string) bool {
	if v == "" {
		return false
	}
	if *dst != nil && strings.TrimSpace(**dst) != "" {
		return false
	}
	*dst = &v
	return true
}

func fillPositive(dst **int, v int) bool {
	if v <= 0 {
		return false
	}
	if *dst != nil && **dst > 0 {
		return false
	}
	*dst = &v
	return true
}
