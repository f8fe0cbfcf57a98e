package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	domainerrors "github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/service"
)

func (s *Server) registerStateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getState",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/state",
		Summary:     "Get catalog",
		Description: "Returns the whole catalog document. The database password is redacted.",
		Tags:        []string{"Catalog"},
	}, s.handleGetState)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetState",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/state/reset",
		Summary:     "Reset catalog",
		Description: "Replaces the catalog with an empty one. Requires confirm=true.",
		Tags:        []string{"Catalog"},
	}, s.handleResetState)

	huma.Register(s.api, huma.Operation{
		OperationID:   "completeSetup",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/setup",
		Summary:       "Complete setup",
		Description:   "Creates the family and their rooms, optionally with starter books",
		Tags:          []string{"Catalog"},
		DefaultStatus: http.StatusCreated,
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/settings",
		Summary:     "Get settings",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPatch,
		Path:        apiPrefix + "/settings",
		Summary:     "Update settings",
		Description: "Replaces the settings groups present in the body",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMaintenanceReport",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/maintenance",
		Summary:     "Catalog health",
		Description: "Lists unplaced books, overdue loans and broken references",
		Tags:        []string{"Catalog"},
	}, s.handleMaintenance)
}

// === DTOs ===

// StateOutput wraps the catalog document for Huma.
type StateOutput struct {
	Body domain.AppState
}

// ResetStateInput contains parameters for resetting the catalog.
type ResetStateInput struct {
	Confirm bool `query:"confirm" doc:"Must be true"`
}

// SetupRequest is the request body for completing setup.
type SetupRequest struct {
	Family      []MemberRequest    `json:"family" minItems:"1" doc:"Household members; at least one adult Admin"`
	Rooms       []string           `json:"rooms,omitempty" doc:"Room names to create"`
	StarterPack bool               `json:"starterPack,omitempty" doc:"Add the bundled classics"`
	Demo        bool               `json:"demo,omitempty" doc:"Mark the catalog as a demo"`
	AI          *domain.AISettings `json:"aiSettings,omitempty" doc:"AI provider choice"`
	DB          *domain.DBSettings `json:"dbSettings,omitempty" doc:"Database choice"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	Body SetupRequest
}

// SettingsOutput wraps the settings for Huma.
type SettingsOutput struct {
	Body service.Settings
}

// UpdateSettingsInput wraps the settings update for Huma.
type UpdateSettingsInput struct {
	Body service.SettingsUpdate
}

// MaintenanceResponse is the catalog health report.
type MaintenanceResponse struct {
	service.MaintenanceReport
	Healthy bool `json:"healthy" doc:"True when nothing needs attention"`
}

// MaintenanceOutput wraps the maintenance report for Huma.
type MaintenanceOutput struct {
	Body MaintenanceResponse
}

// === Handlers ===

func (s *Server) handleGetState(_ context.Context, _ *struct{}) (*StateOutput, error) {
	return &StateOutput{Body: redactState(s.services.State.State())}, nil
}

func (s *Server) handleResetState(ctx context.Context, input *ResetStateInput) (*StateOutput, error) {
	if !input.Confirm {
		return nil, domainerrors.Validation("resetting erases the whole catalog; pass confirm=true")
	}
	return &StateOutput{Body: s.services.State.Reset(ctx)}, nil
}

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*StateOutput, error) {
	family := make([]domain.User, len(input.Body.Family))
	for i, m := range input.Body.Family {
		family[i] = m.toUser("")
	}

	st, err := s.services.User.Setup(ctx, service.SetupInput{
		Family:      family,
		Rooms:       input.Body.Rooms,
		StarterPack: input.Body.StarterPack,
		Demo:        input.Body.Demo,
		AI:          input.Body.AI,
		DB:          input.Body.DB,
	})
	if err != nil {
		return nil, err
	}
	return &StateOutput{Body: redactState(st)}, nil
}

func (s *Server) handleGetSettings(_ context.Context, _ *struct{}) (*SettingsOutput, error) {
	return &SettingsOutput{Body: s.services.Settings.Get()}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Update(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

func (s *Server) handleMaintenance(_ context.Context, _ *struct{}) (*MaintenanceOutput, error) {
	report := s.services.Maintenance.Report(s.services.State.Now())
	return &MaintenanceOutput{
		Body: MaintenanceResponse{MaintenanceReport: report, Healthy: report.Healthy()},
	}, nil
}

// redactState hides the stored database password.
func redactState(st domain.AppState) domain.AppState {
	if st.DBSettings.Password != "" {
		st.DBSettings.Password = service.RedactedPassword
	}
	return st
}
