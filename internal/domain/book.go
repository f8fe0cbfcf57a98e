package domain

import (
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"
)

// BookCondition describes the physical state of a copy.
type BookCondition string

// Book conditions.
const (
	ConditionNew     BookCondition = "New"
	ConditionGood    BookCondition = "Good"
	ConditionFair    BookCondition = "Fair"
	ConditionPoor    BookCondition = "Poor"
	ConditionDamaged BookCondition = "Damaged"
)

// Valid reports whether c is a known condition.
func (c BookCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// ReadStatus is the lifecycle of a book, for the library or for one reader.
type ReadStatus string

// Read statuses.
const (
	StatusUnread       ReadStatus = "Unread"
	StatusReading      ReadStatus = "Reading"
	StatusCompleted    ReadStatus = "Completed"
	StatusDidNotFinish ReadStatus = "Did Not Finish"
	StatusWishlist     ReadStatus = "Wishlist"
)

// Valid reports whether s is a known status.
func (s ReadStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusCompleted, StatusDidNotFinish, StatusWishlist:
		return true
	}
	return false
}

// MediaAdaptation is a film, series or play based on a book.
type MediaAdaptation struct {
	Title       string `json:"title"`
	Type        string `json:"type"` // Movie, TV Series, Play, Documentary
	YoutubeLink string `json:"youtubeLink,omitempty"`
	Description string `json:"description,omitempty"`
}

// Book is one physical copy in the catalog.
type Book struct {
	ID     string `json:"id"`
	ISBN   string `json:"isbn,omitempty"`
	Title  string `json:"title" validate:"required,max=500"`
	Author string `json:"author"`

	Genres        []string          `json:"genres"`
	Tags          []string          `json:"tags"`
	Summary       string            `json:"summary,omitempty"`
	CoverURL      string            `json:"coverUrl,omitempty"`
	Publisher     string            `json:"publisher,omitempty"`
	PublishedDate string            `json:"publishedDate,omitempty"` // As printed: "1813", "May 2001"
	Series        string            `json:"series,omitempty"`
	SeriesIndex   string            `json:"seriesIndex,omitempty"` // String so "1.5" survives
	TotalPages    int               `json:"totalPages,omitempty" validate:"gte=0"`
	Language      string            `json:"language,omitempty"`
	CustomFields  map[string]string `json:"customFields,omitempty"`

	Condition      BookCondition `json:"condition" validate:"condition"`
	IsFirstEdition bool          `json:"isFirstEdition"`
	IsSigned       bool          `json:"isSigned"`

	PurchasePrice  *float64 `json:"purchasePrice,omitempty" validate:"omitnil,gte=0"`
	EstimatedValue float64  `json:"estimatedValue" validate:"gte=0"`
	PurchaseDate   string   `json:"purchaseDate,omitempty"`

	LocationID    string     `json:"locationId,omitempty"` // Empty means unassigned
	AddedDate     time.Time  `json:"addedDate"`
	AddedByUserID string     `json:"addedByUserId,omitempty"`
	IsPublic      bool       `json:"isPublic,omitempty"`
	Status        ReadStatus `json:"status" validate:"readstatus"`

	MinAge             *int              `json:"minAge,omitempty" validate:"omitnil,gte=0,lte=21"`
	ParentalAdvice     string            `json:"parentalAdvice,omitempty"`
	UnderstandingGuide string            `json:"understandingGuide,omitempty"`
	MediaAdaptations   []MediaAdaptation `json:"mediaAdaptations,omitempty"`
	CulturalReference  string            `json:"culturalReference,omitempty"`
	AmazonLink         string            `json:"amazonLink,omitempty"`
}

// IsPlaced reports whether the book has a location.
func (b *Book) IsPlaced() bool {
	return b.LocationID != ""
}

// Clone returns a deep copy.
func (b Book) Clone() Book {
	b.Genres = slices.Clone(b.Genres)
	b.Tags = slices.Clone(b.Tags)
	b.CustomFields = maps.Clone(b.CustomFields)
	b.MediaAdaptations = slices.Clone(b.MediaAdaptations)
	if b.PurchasePrice != nil {
		v := *b.PurchasePrice
		b.PurchasePrice = &v
	}
	if b.MinAge != nil {
		v := *b.MinAge
		b.MinAge = &v
	}
	return b
}

// HasTag reports whether the book carries tag, ignoring case.
func (b *Book) HasTag(tag string) bool {
	return slices.ContainsFunc(b.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

// AmazonSearchLink builds the store search link used when no explicit link is known.
func AmazonSearchLink(title, author string) string {
	q := strings.TrimSpace(title + " " + author)
	if q == "" {
		return ""
	}
	return "https://www.amazon.in/s?k=" + url.QueryEscape(q)
}

// NormalizeISBN strips hyphens, spaces and other punctuation, keeping digits
// and an upper-cased check character "X".
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// BookDraft is partial book metadata from an ISBN lookup or an image scan.
// Every field is optional.
type BookDraft struct {
	ISBN               string            `json:"isbn,omitempty"`
	Title              string            `json:"title,omitempty"`
	Author             string            `json:"author,omitempty"`
	Genres             []string          `json:"genres,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	Summary            string            `json:"summary,omitempty"`
	CoverURL           string            `json:"coverUrl,omitempty"`
	Publisher          string            `json:"publisher,omitempty"`
	PublishedDate      string            `json:"publishedDate,omitempty"`
	Series             string            `json:"series,omitempty"`
	SeriesIndex        string            `json:"seriesIndex,omitempty"`
	TotalPages         int               `json:"totalPages,omitempty"`
	Language           string            `json:"language,omitempty"`
	EstimatedValue     float64           `json:"estimatedValue,omitempty"`
	MinAge             *int              `json:"minAge,omitempty"`
	ParentalAdvice     string            `json:"parentalAdvice,omitempty"`
	UnderstandingGuide string            `json:"understandingGuide,omitempty"`
	MediaAdaptations   []MediaAdaptation `json:"mediaAdaptations,omitempty"`
	CulturalReference  string            `json:"culturalReference,omitempty"`
	AmazonLink         string            `json:"amazonLink,omitempty"`
}

// IsEmpty reports whether the draft carries no identifying metadata.
func (d *BookDraft) IsEmpty() bool {
	return d == nil || (d.Title == "" && d.Author == "" && d.ISBN == "")
}

// Merge fills empty fields of d from other. Fields already set in d win.
func (d *BookDraft) Merge(other *BookDraft) {
	if other == nil {
		return
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&d.ISBN, other.ISBN)
	fill(&d.Title, other.Title)
	fill(&d.Author, other.Author)
	fill(&d.Summary, other.Summary)
	fill(&d.CoverURL, other.CoverURL)
	fill(&d.Publisher, other.Publisher)
	fill(&d.PublishedDate, other.PublishedDate)
	fill(&d.Series, other.Series)
	fill(&d.SeriesIndex, other.SeriesIndex)
	fill(&d.Language, other.Language)
	fill(&d.ParentalAdvice, other.ParentalAdvice)
	fill(&d.UnderstandingGuide, other.UnderstandingGuide)
	fill(&d.CulturalReference, other.CulturalReference)
	fill(&d.AmazonLink, other.AmazonLink)
	if len(d.Genres) == 0 {
		d.Genres = slices.Clone(other.Genres)
	}
	if len(d.Tags) == 0 {
		d.Tags = slices.Clone(other.Tags)
	}
	if len(d.MediaAdaptations) == 0 {
		d.MediaAdaptations = slices.Clone(other.MediaAdaptations)
	}
	if d.TotalPages == 0 {
		d.TotalPages = other.TotalPages
	}
	if d.EstimatedValue == 0 {
		d.EstimatedValue = other.EstimatedValue
	}
	if d.MinAge == nil {
		d.MinAge = other.MinAge
	}
}

// ToBook turns a draft into a new book with catalog defaults applied:
// condition Good, status Unread, a store search link when none was given.
func (d *BookDraft) ToBook(bookID, addedBy string, now time.Time) Book {
	b := Book{
		ID:                 bookID,
		ISBN:               d.ISBN,
		Title:              d.Title,
		Author:             d.Author,
		Genres:             slices.Clone(d.Genres),
		Tags:               slices.Clone(d.Tags),
		Summary:            d.Summary,
		CoverURL:           d.CoverURL,
		Publisher:          d.Publisher,
		PublishedDate:      d.PublishedDate,
		Series:             d.Series,
		SeriesIndex:        d.SeriesIndex,
		TotalPages:         d.TotalPages,
		Language:           d.Language,
		Condition:          ConditionGood,
		EstimatedValue:     d.EstimatedValue,
		AddedDate:          now,
		AddedByUserID:      addedBy,
		Status:             StatusUnread,
		MinAge:             d.MinAge,
		ParentalAdvice:     d.ParentalAdvice,
		UnderstandingGuide: d.UnderstandingGuide,
		MediaAdaptations:   slices.Clone(d.MediaAdaptations),
		CulturalReference:  d.CulturalReference,
		AmazonLink:         d.AmazonLink,
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.AmazonLink == "" {
		b.AmazonLink = AmazonSearchLink(b.Title, b.Author)
	}
	return b.Clone()
}

// Recommendation kinds.
const (
	ReadNext = "READ_NEXT" // Unread books already on the shelves
	BuyNext  = "BUY_NEXT"  // New books to buy
)

// Recommendation is one suggested title from the advisor.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
	Type   string `json:"type,omitempty"`
}
