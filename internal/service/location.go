package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/id"
	"github.com/homelibrarian/homelibrarian/internal/location"
	"github.com/homelibrarian/homelibrarian/internal/state"
)

// LocationService manages rooms, shelves, boxes and stacks.
type LocationService struct {
	state  *StateService
	ids    id.Generator
	logger *slog.Logger
}

// NewLocationService creates a new location service.
func NewLocationService(st *StateService, ids id.Generator, logger *slog.Logger) *LocationService {
	return &LocationService{state: st, ids: ids, logger: logger}
}

// LocationInput describes a new location. Parent may be an id, a breadcrumb,
// a slug path or a unique name.
type LocationInput struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// LocationView is a location with its place in the tree.
type LocationView struct {
	domain.Location
	Path        string `json:"path"`        // "Living Room > Shelf A"
	DisplayName string `json:"displayName"` // "Living Room > Shelf A" for one level, name for roots
	Depth       int    `json:"depth"`
	Books       int    `json:"books"`      // Placed directly here
	TotalBooks  int    `json:"totalBooks"` // Here and anywhere below
}

// Add creates a location. A parent reference that does not resolve is kept as
// an id; the location then renders under "Unknown" until that parent exists.
func (s *LocationService) Add(ctx context.Context, in LocationInput) (domain.Location, error) {
	parentID, err := s.resolveParent(in.Parent)
	if err != nil {
		return domain.Location{}, err
	}
	loc := domain.Location{
		ID:       s.ids(id.Location),
		Name:     in.Name,
		Type:     in.Type,
		ParentID: parentID,
	}
	next, err := s.state.Dispatch(ctx, state.AddLocation{Location: loc})
	if err != nil {
		return domain.Location{}, err
	}
	added, _ := next.FindLocation(loc.ID)
	s.logger.Info("location added", "id", added.ID, "path", location.NewTree(next.Locations).Breadcrumb(added.ID))
	return added, nil
}

// Rename changes a location's name.
func (s *LocationService) Rename(ctx context.Context, ref, name string) (domain.Location, error) {
	loc, err := s.Resolve(ref)
	if err != nil {
		return domain.Location{}, err
	}
	next, err := s.state.Dispatch(ctx, state.RenameLocation{ID: loc.ID, NewName: name})
	if err != nil {
		return domain.Location{}, err
	}
	renamed, _ := next.FindLocation(loc.ID)
	return renamed, nil
}

// SetImage attaches a photo to a location. An empty url removes it.
func (s *LocationService) SetImage(ctx context.Context, ref, imageURL string) (domain.Location, error) {
	loc, err := s.Resolve(ref)
	if err != nil {
		return domain.Location{}, err
	}
	next, err := s.state.Dispatch(ctx, state.SetLocationImage{ID: loc.ID, ImageURL: imageURL})
	if err != nil {
		return domain.Location{}, err
	}
	updated, _ := next.FindLocation(loc.ID)
	return updated, nil
}

// Move reparents a location. An empty parent makes it a root.
func (s *LocationService) Move(ctx context.Context, ref, parentRef string) (domain.Location, error) {
	loc, err := s.Resolve(ref)
	if err != nil {
		return domain.Location{}, err
	}
	parentID := ""
	if strings.TrimSpace(parentRef) != "" {
		parent, err := s.Resolve(parentRef)
		if err != nil {
			return domain.Location{}, err
		}
		parentID = parent.ID
	}
	next, err := s.state.Dispatch(ctx, state.MoveLocation{ID: loc.ID, ParentID: parentID})
	if err != nil {
		return domain.Location{}, err
	}
	moved, _ := next.FindLocation(loc.ID)
	s.logger.Info("location moved", "id", moved.ID, "path", location.NewTree(next.Locations).Breadcrumb(moved.ID))
	return moved, nil
}

// Delete removes a location. Children move up a level and books placed there
// become unassigned.
func (s *LocationService) Delete(ctx context.Context, ref string) error {
	loc, err := s.Resolve(ref)
	if err != nil {
		return err
	}
	before := s.state.State()
	if _, err := s.state.Dispatch(ctx, state.DeleteLocation{ID: loc.ID}); err != nil {
		return err
	}
	s.logger.Info("location deleted",
		"id", loc.ID,
		"children_promoted", len(location.NewTree(before.Locations).Children(loc.ID)),
		"books_unassigned", len(before.BooksAt(loc.ID)),
	)
	return nil
}

// Resolve finds a location by id, breadcrumb, slug path or unique name.
func (s *LocationService) Resolve(ref string) (domain.Location, error) {
	if strings.TrimSpace(ref) == "" {
		return domain.Location{}, errors.Validation("a location is required")
	}
	st := s.state.State()
	return location.NewTree(st.Locations).Resolve(ref)
}

func (s *LocationService) resolveParent(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	parent, err := s.Resolve(ref)
	if errors.Is(err, errors.ErrNotFound) {
		return ref, nil
	}
	if err != nil {
		return "", err
	}
	return parent.ID, nil
}

// List returns every location depth first, with book counts.
func (s *LocationService) List() []LocationView {
	st := s.state.State()
	return locationViews(&st)
}

// Get returns one location and the books placed directly in it.
func (s *LocationService) Get(ref string) (LocationView, []domain.Book, error) {
	loc, err := s.Resolve(ref)
	if err != nil {
		return LocationView{}, nil, err
	}
	st := s.state.State()
	for _, v := range locationViews(&st) {
		if v.ID == loc.ID {
			return v, st.BooksAt(loc.ID), nil
		}
	}
	return LocationView{}, nil, errors.NotFoundf("location %s not found", loc.ID)
}

func locationViews(st *domain.AppState) []LocationView {
	tree := location.NewTree(st.Locations)
	direct := make(map[string]int, len(st.Locations))
	for _, b := range st.Books {
		if b.IsPlaced() {
			direct[b.LocationID]++
		}
	}

	nodes := tree.Flatten()
	views := make([]LocationView, 0, len(nodes))
	for _, n := range nodes {
		total := direct[n.ID]
		for _, d := range tree.Descendants(n.ID) {
			total += direct[d.ID]
		}
		views = append(views, LocationView{
			Location:    n.Location,
			Path:        tree.Breadcrumb(n.ID),
			DisplayName: tree.DisplayName(n.ID),
			Depth:       n.Depth,
			Books:       direct[n.ID],
			TotalBooks:  total,
		})
	}
	return views
}
