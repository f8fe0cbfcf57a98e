package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateAge(t *testing.T) {
	now := date(2025, time.June, 15)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"born today", now, 0},
		{"birthday today", date(2015, time.June, 15), 10},
		{"birthday tomorrow", date(2015, time.June, 16), 9},
		{"birthday yesterday", date(2015, time.June, 14), 10},
		{"earlier month", date(2000, time.January, 1), 25},
		{"later month", date(2000, time.December, 31), 24},
		{"future dob clamps", date(2030, time.January, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAge(tt.dob, now)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestCalculateAge_LeapDay(t *testing.T) {
	dob := date(2012, time.February, 29)

	assert.Equal(t, 12, CalculateAge(dob, date(2025, time.February, 28)))
	assert.Equal(t, 13, CalculateAge(dob, date(2025, time.March, 1)))
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "Toddler"},
		{2, "Toddler"},
		{3, "Preschool"},
		{4, "Preschool"},
		{5, "Kindergarten"},
		{6, "Grade 1"},
		{10, "Grade 5"},
		{18, "Grade 13"},
		{19, "Graduated"},
		{45, "Graduated"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.age), "age %d", tt.age)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2015-03-20")
	require.NoError(t, err)
	assert.Equal(t, date(2015, time.March, 20), d)

	d, err = ParseDate("2015-03-20T10:30:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, date(2015, time.March, 20), d)

	_, err = ParseDate("last spring")
	assert.Error(t, err)
}

func TestNewProfile(t *testing.T) {
	now := date(2025, time.June, 15)

	t.Run("child gets grade band", func(t *testing.T) {
		p := NewProfile(User{ID: "user-1", DOB: "2015-01-01", Role: RoleUser}, now)
		require.NotNil(t, p.Age)
		assert.Equal(t, 10, *p.Age)
		assert.Equal(t, "Grade 5", p.Grade)
	})

	t.Run("admin reports education level", func(t *testing.T) {
		p := NewProfile(User{ID: "user-2", DOB: "1985-01-01", Role: RoleAdmin, EducationLevel: "Postgraduate"}, now)
		require.NotNil(t, p.Age)
		assert.Equal(t, 40, *p.Age)
		assert.Equal(t, "Postgraduate", p.Grade)
	})

	t.Run("unparseable dob has no age", func(t *testing.T) {
		p := NewProfile(User{ID: "user-3", DOB: "soon"}, now)
		assert.Nil(t, p.Age)
		assert.Empty(t, p.Grade)
	})
}

func TestIsAgeAppropriate(t *testing.T) {
	now := date(2025, time.June, 15)
	child := NewProfile(User{DOB: "2015-01-01"}, now)
	unknown := NewProfile(User{}, now)

	gatsby := Book{Title: "The Great Gatsby", MinAge: intPtr(14)}
	potter := Book{Title: "Harry Potter", MinAge: intPtr(9)}
	unrated := Book{Title: "Atlas"}

	assert.False(t, IsAgeAppropriate(child, gatsby))
	assert.True(t, IsAgeAppropriate(child, potter))
	assert.True(t, IsAgeAppropriate(child, unrated))
	assert.True(t, IsAgeAppropriate(unknown, gatsby))
}

func TestUser_ReadingProjection(t *testing.T) {
	u := User{
		History: []ReadEntry{
			{BookID: "book-1", Status: StatusCompleted},
			{BookID: "book-2", Status: StatusReading},
		},
		Favorites: []string{"book-2"},
	}

	assert.True(t, u.HasCompleted("book-1"))
	assert.False(t, u.HasCompleted("book-2"))
	assert.False(t, u.HasCompleted("book-3"))
	assert.True(t, u.IsFavorite("book-2"))
	assert.False(t, u.IsFavorite("book-1"))
}
