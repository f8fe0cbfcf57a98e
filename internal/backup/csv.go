package backup

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/id"
)

// ImportTag marks books that came in from a CSV file.
const ImportTag = "Imported"

// ParseCSV reads books from a "title, author, isbn" CSV. The first row is a
// header and is skipped, as are rows with fewer than two columns. Blank titles
// and authors get placeholders.
func ParseCSV(r io.Reader, addedBy string, now time.Time, ids id.Generator) ([]domain.Book, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	books := []domain.Book{}
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Validationf("csv row %d: %v", row+1, err)
		}
		if row == 0 || len(rec) < 2 {
			continue
		}

		b := domain.Book{
			ID:            ids(id.Book),
			Title:         orDefault(rec[0], "Imported Book"),
			Author:        orDefault(rec[1], "Unknown"),
			Genres:        []string{},
			Tags:          []string{ImportTag},
			Condition:     domain.ConditionGood,
			Status:        domain.StatusUnread,
			AddedDate:     now,
			AddedByUserID: addedBy,
		}
		if len(rec) > 2 {
			b.ISBN = domain.NormalizeISBN(rec[2])
		}
		b.AmazonLink = domain.AmazonSearchLink(b.Title, b.Author)
		books = append(books, b)
	}
	return books, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
