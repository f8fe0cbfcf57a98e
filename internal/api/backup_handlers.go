package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/homelibrarian/homelibrarian/internal/backup"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/backups",
		Summary:     "List backups",
		Description: "Returns the archives at the configured backup location, newest first",
		Tags:        []string{"Backups"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBackup",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/backups",
		Summary:       "Create backup",
		Description:   "Archives the catalog to the configured backup location",
		Tags:          []string{"Backups"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/backups/{name}/restore",
		Summary:     "Restore backup",
		Description: "Replaces the catalog with an archive. The current backup settings are kept.",
		Tags:        []string{"Backups"},
	}, s.handleRestoreBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportCatalog",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/export",
		Summary:     "Export catalog",
		Description: "Downloads a readable copy of the catalog as YAML or JSON",
		Tags:        []string{"Backups"},
	}, s.handleExport)
}

// === DTOs ===

// ListBackupsResponse lists stored archives.
type ListBackupsResponse struct {
	Location string        `json:"location" doc:"local, drive, nas or s3"`
	Backups  []backup.Info `json:"backups"`
}

// ListBackupsOutput wraps the list backups response for Huma.
type ListBackupsOutput struct {
	Body ListBackupsResponse
}

// BackupOutput wraps a backup result for Huma.
type BackupOutput struct {
	Body *backup.Created
}

// RestoreBackupInput contains the archive name path parameter.
type RestoreBackupInput struct {
	Name string `path:"name" doc:"Archive file name"`
}

// RestoreBackupOutput wraps the restore result for Huma.
type RestoreBackupOutput struct {
	Body *backup.Restored
}

// ExportInput contains export parameters.
type ExportInput struct {
	Format string `query:"format" default:"yaml" enum:"yaml,json"`
}

// ExportOutput is a downloadable catalog.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// === Handlers ===

func (s *Server) handleListBackups(ctx context.Context, _ *struct{}) (*ListBackupsOutput, error) {
	backups, err := s.services.Backup.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListBackupsOutput{
		Body: ListBackupsResponse{
			Location: s.services.Settings.Get().Backup.Location,
			Backups:  orEmpty(backups),
		},
	}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*BackupOutput, error) {
	res, err := s.services.Backup.Create(ctx)
	if err != nil {
		return nil, err
	}
	return &BackupOutput{Body: res}, nil
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreBackupOutput, error) {
	restored, err := s.services.Backup.Restore(ctx, pathRef(input.Name))
	if err != nil {
		return nil, err
	}
	return &RestoreBackupOutput{Body: restored}, nil
}

func (s *Server) handleExport(_ context.Context, input *ExportInput) (*ExportOutput, error) {
	var buf bytes.Buffer
	if err := s.services.Backup.Export(&buf, input.Format); err != nil {
		return nil, err
	}

	format := strings.ToLower(input.Format)
	contentType := "application/yaml"
	if format == "json" {
		contentType = "application/json"
	}
	return &ExportOutput{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf(`attachment; filename="home_librarian.%s"`, format),
		Body:               buf.Bytes(),
	}, nil
}
