package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	domainerrors "github.com/homelibrarian/homelibrarian/internal/errors"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/users",
		Summary:     "List members",
		Description: "Returns household members, admins first, with age and grade",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/users",
		Summary:       "Add member",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/users/current",
		Summary:     "Get active member",
		Tags:        []string{"Users"},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "switchUser",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/users/current",
		Summary:     "Switch active member",
		Tags:        []string{"Users"},
	}, s.handleSwitchUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/users/{ref}",
		Summary:     "Get member",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateUser",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/users/{ref}",
		Summary:     "Update member",
		Description: "Replaces a member's profile. Reading history and favorites are kept.",
		Tags:        []string{"Users"},
	}, s.handleUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordReading",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/users/{ref}/reading/{bookId}",
		Summary:     "Record reading",
		Description: "Sets a member's status and optional rating for a book",
		Tags:        []string{"Users"},
	}, s.handleRecordReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleFavorite",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/users/{ref}/favorites/{bookId}",
		Summary:     "Toggle favorite",
		Tags:        []string{"Users"},
	}, s.handleToggleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "refreshPersonas",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/users/{ref}/personas",
		Summary:     "Refresh personas",
		Description: "Matches the member with fictional characters based on their reading",
		Tags:        []string{"Users"},
	}, s.handleRefreshPersonas)

	huma.Register(s.api, huma.Operation{
		OperationID: "recommendBooks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/users/{ref}/recommendations",
		Summary:     "Recommend books",
		Description: "READ_NEXT picks unread books from the shelves; BUY_NEXT suggests new ones",
		Tags:        []string{"Users"},
	}, s.handleRecommend)
}

// === DTOs ===

// MemberRequest is the request body for adding or editing a member.
type MemberRequest struct {
	Name           string      `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
	DOB            string      `json:"dob" doc:"Date of birth, YYYY-MM-DD"`
	Email          string      `json:"email,omitempty"`
	Gender         string      `json:"gender,omitempty"`
	ParentRole     string      `json:"parentRole,omitempty" doc:"Dad, Mom, Guardian or Other"`
	EducationLevel string      `json:"educationLevel,omitempty"`
	Profession     string      `json:"profession,omitempty"`
	AvatarSeed     string      `json:"avatarSeed,omitempty"`
	Role           domain.Role `json:"role,omitempty" enum:"Admin,User" doc:"Defaults to User; admins must be adults"`
}

func (m *MemberRequest) toUser(id string) domain.User {
	return domain.User{
		ID:             id,
		Name:           m.Name,
		DOB:            m.DOB,
		Email:          m.Email,
		Gender:         m.Gender,
		ParentRole:     m.ParentRole,
		EducationLevel: m.EducationLevel,
		Profession:     m.Profession,
		AvatarSeed:     m.AvatarSeed,
		Role:           m.Role,
	}
}

// ListUsersResponse contains household members.
type ListUsersResponse struct {
	Users []domain.Profile `json:"users"`
}

// ListUsersOutput wraps the list users response for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// CreateUserInput wraps the create user request for Huma.
type CreateUserInput struct {
	Body MemberRequest
}

// MemberResponse carries a single member profile.
type MemberResponse struct {
	Member domain.Profile `json:"member"`
}

// UserOutput wraps a member profile for Huma.
type UserOutput struct {
	Body MemberResponse
}

// UserRefInput contains the member reference path parameter.
type UserRefInput struct {
	Ref string `path:"ref" doc:"Member id or name"`
}

// UpdateUserInput wraps the update user request for Huma.
type UpdateUserInput struct {
	Ref  string `path:"ref" doc:"Member id or name"`
	Body MemberRequest
}

// SwitchUserRequest is the request body for switching the active member.
type SwitchUserRequest struct {
	User string `json:"user" minLength:"1" doc:"Member id or name"`
}

// SwitchUserInput wraps the switch user request for Huma.
type SwitchUserInput struct {
	Body SwitchUserRequest
}

// RecordReadingRequest is the request body for recording reading.
type RecordReadingRequest struct {
	Status domain.ReadStatus `json:"status" enum:"Unread,Reading,Completed,Did Not Finish,Wishlist"`
	Rating int               `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"1-5; 0 keeps the current rating"`
}

// RecordReadingInput wraps the record reading request for Huma.
type RecordReadingInput struct {
	Ref    string `path:"ref" doc:"Member id or name"`
	BookID string `path:"bookId" doc:"Book id"`
	Body   RecordReadingRequest
}

// ReadEntryOutput wraps a reading history entry for Huma.
type ReadEntryOutput struct {
	Body domain.ReadEntry
}

// UserBookInput addresses one member and one book.
type UserBookInput struct {
	Ref    string `path:"ref" doc:"Member id or name"`
	BookID string `path:"bookId" doc:"Book id"`
}

// FavoriteResponse reports the favorite state after a toggle.
type FavoriteResponse struct {
	BookID   string `json:"bookId"`
	Favorite bool   `json:"favorite"`
}

// FavoriteOutput wraps the favorite response for Huma.
type FavoriteOutput struct {
	Body FavoriteResponse
}

// PersonasResponse lists a member's personas.
type PersonasResponse struct {
	Personas []domain.Persona `json:"personas"`
}

// PersonasOutput wraps the personas response for Huma.
type PersonasOutput struct {
	Body PersonasResponse
}

// RecommendInput contains recommendation parameters.
type RecommendInput struct {
	Ref  string `path:"ref" doc:"Member id or name"`
	Type string `query:"type" default:"READ_NEXT" enum:"READ_NEXT,BUY_NEXT"`
}

// RecommendResponse lists recommendations.
type RecommendResponse struct {
	Type            string                  `json:"type"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// RecommendOutput wraps the recommendation response for Huma.
type RecommendOutput struct {
	Body RecommendResponse
}

// === Handlers ===

func (s *Server) handleListUsers(_ context.Context, _ *struct{}) (*ListUsersOutput, error) {
	return &ListUsersOutput{Body: ListUsersResponse{Users: orEmpty(s.services.User.List())}}, nil
}

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	p, err := s.services.User.Add(ctx, input.Body.toUser(""))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: MemberResponse{Member: p}}, nil
}

func (s *Server) handleGetCurrentUser(_ context.Context, _ *struct{}) (*UserOutput, error) {
	p, ok := s.services.User.Current()
	if !ok {
		return nil, domainerrors.NotFound("no active member; switch to one first")
	}
	return &UserOutput{Body: MemberResponse{Member: p}}, nil
}

func (s *Server) handleSwitchUser(ctx context.Context, input *SwitchUserInput) (*UserOutput, error) {
	p, err := s.services.User.Switch(ctx, input.Body.User)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: MemberResponse{Member: p}}, nil
}

func (s *Server) handleGetUser(_ context.Context, input *UserRefInput) (*UserOutput, error) {
	p, err := s.services.User.Get(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: MemberResponse{Member: p}}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	u, err := s.services.User.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	p, err := s.services.User.Update(ctx, input.Body.toUser(u.ID))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: MemberResponse{Member: p}}, nil
}

func (s *Server) handleRecordReading(ctx context.Context, input *RecordReadingInput) (*ReadEntryOutput, error) {
	u, err := s.services.User.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	entry, err := s.services.User.RecordReading(ctx, u.ID, input.BookID, input.Body.Status, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return &ReadEntryOutput{Body: entry}, nil
}

func (s *Server) handleToggleFavorite(ctx context.Context, input *UserBookInput) (*FavoriteOutput, error) {
	u, err := s.services.User.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	fav, err := s.services.User.ToggleFavorite(ctx, u.ID, input.BookID)
	if err != nil {
		return nil, err
	}
	return &FavoriteOutput{Body: FavoriteResponse{BookID: input.BookID, Favorite: fav}}, nil
}

func (s *Server) handleRefreshPersonas(ctx context.Context, input *UserRefInput) (*PersonasOutput, error) {
	u, err := s.services.User.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	personas, err := s.services.Advisor.RefreshPersonas(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &PersonasOutput{Body: PersonasResponse{Personas: orEmpty(personas)}}, nil
}

func (s *Server) handleRecommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	u, err := s.services.User.Resolve(pathRef(input.Ref))
	if err != nil {
		return nil, err
	}
	recs, err := s.services.Advisor.Recommend(ctx, u.ID, input.Type)
	if err != nil {
		return nil, err
	}
	return &RecommendOutput{
		Body: RecommendResponse{Type: input.Type, Recommendations: orEmpty(recs)},
	}, nil
}
