package validation_test

import (
	"net/http"
	"testing"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBook() domain.Book {
	return domain.Book{
		ID:        "book-1",
		Title:     "Dune",
		Condition: domain.ConditionGood,
		Status:    domain.StatusUnread,
	}
}

func TestValidator_Book(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(validBook()))

	tests := []struct {
		name  string
		edit  func(*domain.Book)
		field string
	}{
		{"missing title", func(b *domain.Book) { b.Title = "" }, "title"},
		{"unknown condition", func(b *domain.Book) { b.Condition = "Mint" }, "condition"},
		{"unknown status", func(b *domain.Book) { b.Status = "Skimmed" }, "status"},
		{"negative value", func(b *domain.Book) { b.EstimatedValue = -1 }, "estimatedValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBook()
			tt.edit(&b)

			err := v.Validate(b)
			require.Error(t, err)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}
}

func TestValidator_StatusWithSpaces(t *testing.T) {
	b := validBook()
	b.Status = domain.StatusDidNotFinish

	assert.NoError(t, validation.New().Validate(b))
}

func TestValidator_User(t *testing.T) {
	v := validation.New()

	err := v.Validate(domain.User{Name: "Asha", DOB: "2015-02-01", Role: "Owner"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	assert.NoError(t, v.Validate(domain.User{Name: "Asha", DOB: "2015-02-01", Role: domain.RoleUser}))
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("dob", "2015-02-01", "date"))

	err := v.Var("dob", "someday", "date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
