package openlibrary

import (
	"fmt"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
)

// bookData is one entry of the jscmd=data response, keyed by "ISBN:<isbn>".
type bookData struct {
	Title         string  `json:"title"`
	Authors       []named `json:"authors"`
	Cover         *cover  `json:"cover"`
	NumberOfPages int     `json:"number_of_pages"`
	PublishDate   string  `json:"publish_date"`
	Publishers    []named `json:"publishers"`
	Subjects      []named `json:"subjects"`
}

type named struct {
	Name string `json:"name"`
}

type cover struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

func (d *bookData) toDraft(isbn string) *domain.BookDraft {
	draft := &domain.BookDraft{
		ISBN:          isbn,
		Title:         strings.TrimSpace(d.Title),
		Author:        unknownAuthor,
		TotalPages:    d.NumberOfPages,
		PublishedDate: d.PublishDate,
		Genres:        []string{},
		Tags:          []string{},
	}

	authors := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			authors = append(authors, n)
		}
	}
	if len(authors) > 0 {
		draft.Author = strings.Join(authors, ", ")
	}

	if d.Cover != nil {
		draft.CoverURL = d.Cover.Large
		if draft.CoverURL == "" {
			draft.CoverURL = d.Cover.Medium
		}
	}

	publisher := "Unknown"
	if len(d.Publishers) > 0 && d.Publishers[0].Name != "" {
		draft.Publisher = d.Publishers[0].Name
		publisher = draft.Publisher
	}

	for _, s := range d.Subjects {
		if len(draft.Genres) == maxGenres {
			break
		}
		if n := strings.TrimSpace(s.Name); n != "" {
			draft.Genres = append(draft.Genres, n)
		}
	}

	draft.Summary = fmt.Sprintf("Published by %s in %s.", publisher, d.PublishDate)
	return draft
}
