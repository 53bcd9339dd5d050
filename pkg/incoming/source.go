package incoming

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/googlebooks"
	"github.com/lectiohq/lectio/pkg/openlibrary"
	"github.com/segmentio/encoding/json"
)

// FromSource adapts a raw JSON object that the named source produced. Objects
// that don't decode into the source's typed shape fall back to FromMap.
func FromSource(source Source, raw map[string]interface{}) Record {
	switch source {
	case SourceGoogle:
		var v googlebooks.Volume
		if decode(raw, &v) && v.ID != "" {
			return FromGoogleBooks(v)
		}
	case SourceOpenLibrary:
		key, _ := raw["key"].(string)
		if strings.Contains(key, "/books/") {
			var e openlibrary.EditionResponse
			if decode(raw, &e) {
				return FromOpenLibraryEdition(e)
			}
		} else {
			var d openlibrary.SearchDoc
			if decode(raw, &d) && d.Key != "" {
				return FromOpenLibrarySearch(d)
			}
		}
	}

	rec := FromMap(raw)
	if source != "" && source != SourceUnknown {
		rec.Source = source
	}
	return rec
}

func decode(raw map[string]interface{}, dest interface{}) bool {
	b, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}
