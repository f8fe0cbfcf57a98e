// Package state applies named actions to the catalog.
//
// Reduce is pure: it clones the input, applies the action to the clone and
// returns it. A failed action returns the input unchanged together with a coded
// error from package errors. Actions carry everything they need, including the
// time they happened, so the same state and action always give the same result.
package state

import (
	"slices"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/validation"
)

var validate = validation.New()

// Action is a named change to the catalog.
type Action interface {
	// Name identifies the action in logs and metrics.
	Name() string
	apply(s *domain.AppState) error
}

// Reduce applies a to s.
func Reduce(s domain.AppState, a Action) (domain.AppState, error) {
	next := s.Clone()
	if err := a.apply(&next); err != nil {
		return s, err
	}
	return next, nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	return slices.IndexFunc(items, match)
}

func bookIndex(s *domain.AppState, id string) int {
	return indexOf(s.Books, func(b domain.Book) bool { return b.ID == id })
}

func userIndex(s *domain.AppState, id string) int {
	return indexOf(s.Users, func(u domain.User) bool { return u.ID == id })
}

func locationIndex(s *domain.AppState, id string) int {
	return indexOf(s.Locations, func(l domain.Location) bool { return l.ID == id })
}

func loanIndex(s *domain.AppState, id string) int {
	return indexOf(s.Loans, func(l domain.Loan) bool { return l.ID == id })
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
