package projects

import (
	"time"

	"github.com/codehaven/codehaven/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ProjectVM is the JSON shape for a project.
type ProjectVM struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Language     string    `json:"language"`
	Framework    string    `json:"framework,omitempty"`
	FileCount    int64     `json:"fileCount"`
	SyncStatus   string    `json:"syncStatus"`
	LastAccessed time.Time `json:"lastAccessed"`
	Settings     bson.M    `json:"settings,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toVM(p *models.Project) ProjectVM {
	return ProjectVM{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Description:  p.Description,
		Language:     p.Language,
		Framework:    p.Framework,
		FileCount:    p.FileCount,
		SyncStatus:   string(p.SyncStatus),
		LastAccessed: p.LastAccessed,
		Settings:     p.Settings,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// TemplateFileVM reports the outcome of provisioning one template file.
type TemplateFileVM struct {
	Name    string `json:"name"`
	ID      string `json:"id,omitempty"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Framework   string `json:"framework"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Framework   *string `json:"framework"`
	Settings    bson.M  `json:"settings"`
}
