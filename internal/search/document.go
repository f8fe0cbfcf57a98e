// Package search provides full-text search over the catalog using Bleve.
// Books and locations are indexed as one document type with a discriminator,
// so a single query can find "the hobbit" and "hall shelf" alike.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/location"
)

// DocType represents the type of document in the index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook     DocType = "book"
	DocTypeLocation DocType = "location"
)

// Document is the flattened form of a catalog entity.
//
// Books carry the breadcrumb of their location and the ids of every location
// above it, so a filter on "Living Room" also finds books on its shelves.
type Document struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Series    string `json:"series,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	ISBN      string `json:"isbn,omitempty"`

	Genres []string `json:"genres,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Status string   `json:"status,omitempty"`

	Location    string   `json:"location,omitempty"`     // Breadcrumb
	LocationIDs []string `json:"location_ids,omitempty"` // Own location and its ancestors

	MinAge      int   `json:"min_age"`
	PublishYear int   `json:"publish_year,omitempty"`
	AddedAt     int64 `json:"added_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"type":     string(d.Type),
		"title":    d.Title,
		"min_age":  d.MinAge,
		"added_at": d.AddedAt,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Series != "" {
		m["series"] = d.Series
	}
	if d.Summary != "" {
		m["summary"] = d.Summary
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Status != "" {
		m["status"] = d.Status
	}
	if d.Location != "" {
		m["location"] = d.Location
	}
	if len(d.LocationIDs) > 0 {
		m["location_ids"] = d.LocationIDs
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	return m
}

// BookDocument converts a book, resolving its location through tree.
func BookDocument(b *domain.Book, tree *location.Tree) *Document {
	doc := &Document{
		ID:        b.ID,
		Type:      DocTypeBook,
		Title:     b.Title,
		Author:    b.Author,
		Series:    b.Series,
		Summary:   b.Summary,
		Publisher: b.Publisher,
		ISBN:      domain.NormalizeISBN(b.ISBN),
		Genres:    keys(b.Genres),
		Tags:      keys(b.Tags),
		Status:    Key(string(b.Status)),
		Location:  tree.Breadcrumb(b.LocationID),
		AddedAt:   b.AddedDate.UnixMilli(),
	}
	if b.IsPlaced() {
		doc.LocationIDs = append(doc.LocationIDs, b.LocationID)
		for _, a := range tree.Ancestors(b.LocationID) {
			doc.LocationIDs = append(doc.LocationIDs, a.ID)
		}
	}
	if b.MinAge != nil {
		doc.MinAge = *b.MinAge
	}
	doc.PublishYear = publishYear(b.PublishedDate)
	return doc
}

// LocationDocument converts a location. Its title is the full breadcrumb.
func LocationDocument(l *domain.Location, tree *location.Tree) *Document {
	doc := &Document{
		ID:          l.ID,
		Type:        DocTypeLocation,
		Title:       tree.Breadcrumb(l.ID),
		Location:    tree.Breadcrumb(l.ID),
		LocationIDs: []string{l.ID},
		Tags:        keys([]string{l.Type}),
	}
	for _, a := range tree.Ancestors(l.ID) {
		doc.LocationIDs = append(doc.LocationIDs, a.ID)
	}
	return doc
}

// FromState builds the documents for every book and location in s.
func FromState(s *domain.AppState) []*Document {
	tree := location.NewTree(s.Locations)
	docs := make([]*Document, 0, len(s.Books)+len(s.Locations))
	for i := range s.Books {
		docs = append(docs, BookDocument(&s.Books[i], tree))
	}
	for i := range s.Locations {
		docs = append(docs, LocationDocument(&s.Locations[i], tree))
	}
	return docs
}

// Key normalizes a keyword value (genre, tag, status) for exact matching.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func keys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if k := Key(s); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// publishYear finds a four digit year in a free-form date ("May 2001", "1813").
func publishYear(s string) int {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) {
		if len(f) == 4 {
			if y, err := strconv.Atoi(f); err == nil {
				return y
			}
		}
	}
	return 0
}
