package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
)

func newAdvisor(l *testLibrary, p *fakeProvider) *AdvisorService {
	return NewAdvisorService(l.state, providerOf(p, nil), metrics.New(false), l.logger)
}

func TestAdvisorService_RecommendReadNext(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()

	read := addTestBook(t, l, "Matilda", "Roald Dahl")
	addTestBook(t, l, "The BFG", "Roald Dahl")
	_, err := l.books.Add(ctx, domain.Book{Title: "Gone Girl", Author: "Gillian Flynn", MinAge: intPtr(16)})
	require.NoError(t, err)
	_, err = l.users.RecordReading(ctx, child.ID, read.ID, domain.StatusCompleted, 4)
	require.NoError(t, err)

	p := &fakeProvider{recs: []domain.Recommendation{{Title: "The BFG", Author: "Roald Dahl", Reason: "More Dahl"}}}
	recs, err := newAdvisor(l, p).Recommend(ctx, child.ID, domain.ReadNext)

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ReadNext, recs[0].Type)

	require.Len(t, p.prompts, 1)
	prompt := p.prompts[0]
	assert.Contains(t, prompt, "User (Age 9) has read: [Matilda (Roald Dahl)]")
	assert.Contains(t, prompt, `LIBRARY_LIST: ["The BFG by Roald Dahl"]`)
	assert.NotContains(t, prompt, "Gone Girl")
}

func TestAdvisorService_RecommendBuyNextUsesRecentHistory(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)
	ctx := context.Background()

	for i := 1; i <= 17; i++ {
		b := addTestBook(t, l, fmt.Sprintf("Title %02d", i), "Author")
		_, err := l.users.RecordReading(ctx, admin.ID, b.ID, domain.StatusCompleted, 0)
		require.NoError(t, err)
	}

	p := &fakeProvider{recs: []domain.Recommendation{{Title: "New Book", Author: "Someone", Type: domain.BuyNext}}}
	_, err := newAdvisor(l, p).Recommend(ctx, admin.ID, domain.BuyNext)
	require.NoError(t, err)

	prompt := p.prompts[0]
	assert.NotContains(t, prompt, "Title 01")
	assert.NotContains(t, prompt, "Title 02")
	assert.Contains(t, prompt, "Title 03")
	assert.Contains(t, prompt, "Title 17")
	assert.Contains(t, prompt, "Suggest 5 NEW books to buy")
	assert.NotContains(t, prompt, "LIBRARY_LIST")
}

func TestAdvisorService_RecommendErrors(t *testing.T) {
	l := setupLibrary(t)
	admin, _ := setupFamily(t, l)
	ctx := context.Background()

	_, err := newAdvisor(l, &fakeProvider{}).Recommend(ctx, admin.ID, "SOMETHING")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = newAdvisor(l, &fakeProvider{}).Recommend(ctx, "user-404", domain.ReadNext)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = newAdvisor(l, &fakeProvider{err: errors.Unavailablef("quota exceeded")}).Recommend(ctx, admin.ID, domain.ReadNext)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestAdvisorService_RefreshPersonas(t *testing.T) {
	l := setupLibrary(t)
	_, child := setupFamily(t, l)
	ctx := context.Background()
	p := &fakeProvider{personas: []domain.Persona{{Universe: "Harry Potter", Character: "Hermione", Reason: "Reads everything"}}}
	advisor := newAdvisor(l, p)

	_, err := advisor.RefreshPersonas(ctx, child.ID)
	assert.True(t, errors.Is(err, errors.ErrValidation), "no history yet")

	b, err := l.books.Add(ctx, domain.Book{Title: "Matilda", Author: "Roald Dahl", Genres: []string{"Fiction"}})
	require.NoError(t, err)
	_, err = l.users.RecordReading(ctx, child.ID, b.ID, domain.StatusReading, 0)
	require.NoError(t, err)

	personas, err := advisor.RefreshPersonas(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, p.personas, personas)
	assert.Contains(t, p.prompts[0], "Matilda by Roald Dahl (Genre: Fiction)")

	st := l.state.State()
	u, _ := st.FindUser(child.ID)
	assert.Equal(t, p.personas, u.Personas)
}
