package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role is a household member's permission level.
type Role string

// Roles.
const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// AdultAge is the minimum age of an Admin.
const AdultAge = 18

// DateLayout is the calendar-date format used for birthdays.
const DateLayout = "2006-01-02"

// ReadEntry is one reader's relationship with one book.
type ReadEntry struct {
	BookID       string     `json:"bookId"`
	Status       ReadStatus `json:"status"`
	DateFinished *time.Time `json:"dateFinished,omitempty"`
	Rating       int        `json:"rating,omitempty"` // 1-5, 0 when unrated
	ReadCount    int        `json:"readCount,omitempty"`
}

// Persona maps a reader to a fictional character based on their history.
type Persona struct {
	Universe  string `json:"universe"`
	Character string `json:"character"`
	Reason    string `json:"reason"`
}

// User is a household member. Age and grade are derived from DOB, never stored.
type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"name" validate:"required,max=100"`
	Email          string      `json:"email,omitempty" validate:"omitempty,email"`
	DOB            string      `json:"dob" validate:"required,date"` // YYYY-MM-DD
	Gender         string      `json:"gender,omitempty"`
	ParentRole     string      `json:"parentRole,omitempty"` // Dad, Mom, Guardian, Other
	EducationLevel string      `json:"educationLevel,omitempty"`
	Profession     string      `json:"profession,omitempty"`
	AvatarSeed     string      `json:"avatarSeed,omitempty"`
	Role           Role        `json:"role" validate:"role"`
	History        []ReadEntry `json:"history"`
	Favorites      []string    `json:"favorites"`
	Personas       []Persona   `json:"personas,omitempty"`
}

// Clone returns a deep copy.
func (u User) Clone() User {
	u.History = slices.Clone(u.History)
	for i := range u.History {
		if d := u.History[i].DateFinished; d != nil {
			v := *d
			u.History[i].DateFinished = &v
		}
	}
	u.Favorites = slices.Clone(u.Favorites)
	u.Personas = slices.Clone(u.Personas)
	return u
}

// IsAdmin reports whether the user is an Admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Entry returns the user's history entry for bookID.
func (u *User) Entry(bookID string) (ReadEntry, bool) {
	i := slices.IndexFunc(u.History, func(e ReadEntry) bool { return e.BookID == bookID })
	if i < 0 {
		return ReadEntry{}, false
	}
	return u.History[i], true
}

// HasCompleted reports whether the user finished bookID.
func (u *User) HasCompleted(bookID string) bool {
	e, ok := u.Entry(bookID)
	return ok && e.Status == StatusCompleted
}

// IsFavorite reports whether bookID is among the user's favorites.
func (u *User) IsFavorite(bookID string) bool {
	return slices.Contains(u.Favorites, bookID)
}

// ParseDate parses a calendar date. RFC 3339 timestamps are accepted for
// documents written by older clients; only the date part is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// CalculateAge returns whole calendar years between dob and now.
// A DOB in the future yields 0.
func CalculateAge(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return max(age, 0)
}

// GradeFor maps an age to its school band.
func GradeFor(age int) string {
	switch {
	case age < 3:
		return "Toddler"
	case age < 5:
		return "Preschool"
	case age == 5:
		return "Kindergarten"
	case age <= 18:
		return fmt.Sprintf("Grade %d", age-5)
	default:
		return "Graduated"
	}
}

// Profile is a user with age and grade derived at read time.
type Profile struct {
	User
	Age   *int   `json:"age,omitempty"`
	Grade string `json:"grade,omitempty"`
}

// NewProfile derives age and grade for u as of now.
// Age is nil when the DOB is missing or unparseable.
// Admins report their education level as their grade.
func NewProfile(u User, now time.Time) Profile {
	p := Profile{User: u}
	if dob, err := ParseDate(u.DOB); err == nil {
		age := CalculateAge(dob, now)
		p.Age = &age
		p.Grade = GradeFor(age)
	}
	if u.IsAdmin() {
		p.Grade = u.EducationLevel
	}
	return p
}

// IsAgeAppropriate reports whether the reader may be shown the book.
// Unknown age or unrated books are always appropriate.
func IsAgeAppropriate(p Profile, b Book) bool {
	if b.MinAge == nil || p.Age == nil {
		return true
	}
	return *p.Age >= *b.MinAge
}
