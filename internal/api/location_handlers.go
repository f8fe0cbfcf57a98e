package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func (s *Server) registerLocationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLocations",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/locations",
		Summary:     "List locations",
		Description: "Returns every room, shelf and box depth first, with book counts",
		Tags:        []string{"Locations"},
	}, s.handleListLocations)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLocation",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/locations",
		Summary:       "Create location",
		Description:   "Creates a location. Parent may be an id, a breadcrumb or a unique name.",
		Tags:          []string{"Locations"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLocation)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLocation",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/locations/{ref}",
		Summary:     "Get location",
		Description: "Returns a location and the books placed directly in it",
		Tags:        []string{"Locations"},
	}, s.handleGetLocation)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLocation",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/locations/{ref}",
		Summary:     "Update location",
		Description: "Renames, moves, or changes the photo of a location",
		Tags:        []string{"Locations"},
	}, s.handleUpdateLocation)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLocation",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/locations/{ref}",
		Summary:       "Delete location",
		Description:   "Deletes a location. Children move up a level and its books become unassigned.",
		Tags:          []string{"Locations"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLocation)
}

// === DTOs ===

// ListLocationsResponse contains every location.
type ListLocationsResponse struct {
	Locations []service.LocationView `json:"locations" doc:"Locations, depth first"`
}

// ListLocationsOutput wraps the list locations response for Huma.
type ListLocationsOutput struct {
	Body ListLocationsResponse
}

// CreateLocationInput wraps the create location request for Huma.
type CreateLocationInput struct {
	Body service.LocationInput
}

// LocationOutput wraps a location for Huma.
type LocationOutput struct {
	Body domain.Location
}

// LocationRefInput contains the location reference path parameter.
type LocationRefInput struct {
	Ref string `path:"ref" doc:"Location id, breadcrumb or unique name"`
}

// LocationDetailResponse is a location with its books.
type LocationDetailResponse struct {
	Location service.LocationView `json:"location"`
	Books    []domain.Book        `json:"books" doc:"Books placed directly here"`
}

// LocationDetailOutput wraps the location detail for Huma.
type LocationDetailOutput struct {
	Body LocationDetailResponse
}

// UpdateLocationRequest is the request body for updating a location.
// Absent fields are left unchanged.
type UpdateLocationRequest struct {
	Name     *string `json:"name,omitempty" doc:"New name"`
	Parent   *string `json:"parent,omitempty" doc:"New parent reference; empty makes it a room"`
	ImageURL *string `json:"imageUrl,omitempty" doc:"Photo URL or data URI; empty removes it"`
}

// UpdateLocationInput wraps the update location request for Huma.
type UpdateLocationInput struct {
	Ref  string `path:"ref" doc:"Location id, breadcrumb or unique name"`
	Body UpdateLocationRequest
}

// === Handlers ===

func (s *Server) handleListLocations(_ context.Context, _ *struct{}) (*ListLocationsOutput, error) {
	return &ListLocationsOutput{
		Body: ListLocationsResponse{Locations: orEmpty(s.services.Location.List())},
	}, nil
}

func (s *Server) handleCreateLocation(ctx context.Context, input *CreateLocationInput) (*LocationOutput, error) {
	loc, err := s.services.Location.Add(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &LocationOutput{Body: loc}, nil
}

func (s *Server) handleGetLocation(_ context.Context, input *LocationRefInput) (*LocationDetailOutput, error) {
	view, books, err := s.services.Location.Get(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	return &LocationDetailOutput{
		Body: LocationDetailResponse{Location: view, Books: orEmpty(books)},
	}, nil
}

func (s *Server) handleUpdateLocation(ctx context.Context, input *UpdateLocationInput) (*LocationDetailOutput, error) {
	svc := s.services.Location
	loc, err := svc.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}

	// Later steps address the location by id so a rename cannot lose it.
	if input.Body.Name != nil {
		if _, err := svc.Rename(ctx, loc.ID, *input.Body.Name); err != nil {
			return nil, err
		}
	}
	if input.Body.Parent != nil {
		if _, err := svc.Move(ctx, loc.ID, *input.Body.Parent); err != nil {
			return nil, err
		}
	}
	if input.Body.ImageURL != nil {
		if _, err := svc.SetImage(ctx, loc.ID, *input.Body.ImageURL); err != nil {
			return nil, err
		}
	}

	view, books, err := svc.Get(loc.ID)
	if err != nil {
		return nil, err
	}
	return &LocationDetailOutput{
		Body: LocationDetailResponse{Location: view, Books: orEmpty(books)},
	}, nil
}

func (s *Server) handleDeleteLocation(ctx context.Context, input *LocationRefInput) (*struct{}, error) {
	if err := s.services.Location.Delete(ctx, pathRef(input.Ref)); err != nil {
		return nil, err
	}
	return nil, nil
}
