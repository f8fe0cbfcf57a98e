package state

import (
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/location"
)

// AddLocation creates a room, or a shelf/box/stack under ParentID.
// A ParentID that does not resolve yet is accepted and renders as "Unknown".
type AddLocation struct {
	Location domain.Location
}

// Name implements Action.
func (AddLocation) Name() string { return "location.add" }

func (a AddLocation) apply(s *domain.AppState) error {
	l := a.Location
	l.Name = strings.TrimSpace(l.Name)
	if l.ID == "" {
		return errors.Validation("location id is required")
	}
	if l.Name == "" {
		return errors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}
	if locationIndex(s, l.ID) >= 0 {
		return errors.AlreadyExistsf("location %s already exists", l.ID)
	}
	if err := location.NewTree(s.Locations).ValidateParent(l.ID, l.ParentID); err != nil {
		return err
	}
	l.Type = location.NormalizeType(l.Type, l.ParentID == "")
	s.Locations = append(s.Locations, l)
	return nil
}

// RenameLocation changes a location's name. Children and books keep their links.
type RenameLocation struct {
	ID      string
	NewName string
}

// Name implements Action.
func (RenameLocation) Name() string { return "location.rename" }

func (a RenameLocation) apply(s *domain.AppState) error {
	i := locationIndex(s, a.ID)
	if i < 0 {
		return errors.NotFoundf("location %s not found", a.ID)
	}
	name := strings.TrimSpace(a.NewName)
	if name == "" {
		return errors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}
	s.Locations[i].Name = name
	return nil
}

// SetLocationImage attaches a photo (URL or data URI) to a location.
// An empty ImageURL removes it.
type SetLocationImage struct {
	ID       string
	ImageURL string
}

// Name implements Action.
func (SetLocationImage) Name() string { return "location.image" }

func (a SetLocationImage) apply(s *domain.AppState) error {
	i := locationIndex(s, a.ID)
	if i < 0 {
		return errors.NotFoundf("location %s not found", a.ID)
	}
	s.Locations[i].ImageURL = strings.TrimSpace(a.ImageURL)
	return nil
}

// MoveLocation reparents a location. An empty ParentID makes it a root.
// Moves that would make a location its own ancestor are rejected.
type MoveLocation struct {
	ID       string
	ParentID string
}

// Name implements Action.
func (MoveLocation) Name() string { return "location.move" }

func (a MoveLocation) apply(s *domain.AppState) error {
	i := locationIndex(s, a.ID)
	if i < 0 {
		return errors.NotFoundf("location %s not found", a.ID)
	}
	if err := location.NewTree(s.Locations).ValidateParent(a.ID, a.ParentID); err != nil {
		return err
	}
	s.Locations[i].ParentID = a.ParentID
	return nil
}

// DeleteLocation removes a location. Its children move up to its parent and
// books placed directly in it become unassigned.
type DeleteLocation struct {
	ID string
}

// Name implements Action.
func (DeleteLocation) Name() string { return "location.delete" }

func (a DeleteLocation) apply(s *domain.AppState) error {
	i := locationIndex(s, a.ID)
	if i < 0 {
		return errors.NotFoundf("location %s not found", a.ID)
	}
	parent := s.Locations[i].ParentID
	if parent == a.ID {
		parent = ""
	}

	kept := make([]domain.Location, 0, len(s.Locations)-1)
	for _, l := range s.Locations {
		if l.ID == a.ID {
			continue
		}
		if l.ParentID == a.ID {
			l.ParentID = parent
			if l.ParentID == l.ID {
				l.ParentID = ""
			}
		}
		kept = append(kept, l)
	}
	s.Locations = kept

	for j := range s.Books {
		if s.Books[j].LocationID == a.ID {
			s.Books[j].LocationID = ""
		}
	}
	return nil
}
