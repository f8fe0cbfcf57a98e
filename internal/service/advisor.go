package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/metrics"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// recentHistory is how many reading-history entries feed a recommendation.
const recentHistory = 15

// AdvisorService asks the AI provider what a reader might enjoy next.
type AdvisorService struct {
	state     *StateService
	providers ProviderFactory
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAdvisorService creates a new advisor service.
func NewAdvisorService(st *StateService, providers ProviderFactory, m *metrics.Metrics, logger *slog.Logger) *AdvisorService {
	return &AdvisorService{state: st, providers: providers, metrics: m, logger: logger}
}

// Recommend suggests books for a reader. READ_NEXT picks from unread,
// age-appropriate books already in the library; BUY_NEXT suggests new ones.
func (s *AdvisorService) Recommend(ctx context.Context, userID, kind string) ([]domain.Recommendation, error) {
	if kind != domain.ReadNext && kind != domain.BuyNext {
		return nil, errors.ValidationWithDetails("validation failed", map[string]string{"type": "must be READ_NEXT or BUY_NEXT"})
	}
	st := s.state.State()
	u, ok := st.FindUser(userID)
	if !ok {
		return nil, errors.NotFoundf("user %s not found", userID)
	}

	prompt := recommendationPrompt(&st, domain.NewProfile(u, s.state.Now()), kind)
	provider, err := s.providers(ctx, st.AISettings)
	if err != nil {
		return nil, err
	}
	recs, err := provider.Recommend(ctx, prompt)
	s.metrics.ObserveLookup(provider.Name(), err)
	if err != nil {
		s.logger.Warn("recommendations failed", "provider", provider.Name(), "user", u.ID, "error", err)
		return nil, err
	}
	for i := range recs {
		if recs[i].Type == "" {
			recs[i].Type = kind
		}
	}
	s.logger.Info("recommendations ready", "user", u.ID, "type", kind, "count", len(recs))
	return recs, nil
}

// RefreshPersonas matches a reader with fictional characters based on their
// whole reading history and stores the result on their profile.
func (s *AdvisorService) RefreshPersonas(ctx context.Context, userID string) ([]domain.Persona, error) {
	st := s.state.State()
	u, ok := st.FindUser(userID)
	if !ok {
		return nil, errors.NotFoundf("user %s not found", userID)
	}
	if len(u.History) == 0 {
		return nil, errors.Validationf("%s has no reading history yet", u.Name)
	}

	provider, err := s.providers(ctx, st.AISettings)
	if err != nil {
		return nil, err
	}
	personas, err := provider.Personas(ctx, personaPrompt(&st, u))
	s.metrics.ObserveLookup(provider.Name(), err)
	if err != nil {
		s.logger.Warn("persona generation failed", "provider", provider.Name(), "user", u.ID, "error", err)
		return nil, err
	}

	if _, err := s.state.Dispatch(ctx, state.SetPersonas{UserID: u.ID, Personas: personas}); err != nil {
		return nil, err
	}
	s.logger.Info("personas updated", "user", u.ID, "count", len(personas))
	return personas, nil
}

func recommendationPrompt(st *domain.AppState, reader domain.Profile, kind string) string {
	history := reader.History
	if len(history) > recentHistory {
		history = history[len(history)-recentHistory:]
	}
	read := make([]string, 0, len(history))
	for _, e := range history {
		if b, ok := st.FindBook(e.BookID); ok {
			read = append(read, fmt.Sprintf("%s (%s)", b.Title, b.Author))
		}
	}

	age := "unknown"
	if reader.Age != nil {
		age = strconv.Itoa(*reader.Age)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User (Age %s) has read: [%s]. ", age, strings.Join(read, ", "))
	if kind == domain.BuyNext {
		sb.WriteString("Suggest 5 NEW books to buy (available in India).")
		return sb.String()
	}

	sb.WriteString("Suggest 3 books from the provided LIBRARY_LIST that they haven't read. Focus on finding hidden gems or sequels.")
	unread := []string{}
	for _, b := range st.Books {
		if _, seen := reader.Entry(b.ID); seen {
			continue
		}
		if !domain.IsAgeAppropriate(reader, b) {
			continue
		}
		unread = append(unread, b.Title+" by "+b.Author)
	}
	list, _ := json.Marshal(unread)
	sb.WriteString(" LIBRARY_LIST: ")
	sb.Write(list)
	return sb.String()
}

func personaPrompt(st *domain.AppState, u domain.User) string {
	read := make([]string, 0, len(u.History))
	for _, e := range u.History {
		if b, ok := st.FindBook(e.BookID); ok {
			read = append(read, fmt.Sprintf("%s by %s (Genre: %s)", b.Title, b.Author, strings.Join(b.Genres, ",")))
		}
	}
	return fmt.Sprintf(`Based on this reading history: [%s], assign 3 "Pop Culture Personas" to this user.
Examples: If they read Fantasy -> Universe: LOTR, Character: Bilbo. If SciFi -> Universe: Star Trek, Character: Data.
Universes to choose from: Marvel, DC, Star Wars, Harry Potter, Tolkien, Disney, Star Trek, Sherlock Holmes, Game of Thrones.
Return JSON array.`, strings.Join(read, "; "))
}
