package enrich

type EnrichPayload struct {
	ISBN                  string `json:"isbn,omitempty" mod:"trim" validate:"isbn"`
	GoogleBooksID         string `json:"google_books_id,omitempty" mod:"trim" validate:"max=200"`
	OpenLibraryWorkKey    string `json:"openlibrary_work_key,omitempty" mod:"trim" validate:"olkey"`
	OpenLibraryEditionKey string `json:"openlibrary_edition_key,omitempty" mod:"trim" validate:"olkey"`
}

func (p EnrichPayload) hints() Hints {
	return Hints(p)
}
