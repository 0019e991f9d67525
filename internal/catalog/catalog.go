// internal/catalog/catalog.go

// Package catalog supplies the read-only resource, template and workspace
// data a pipeline run selects from. Two sources exist: a Postgres store for
// service deployments and a JSON registry file for local runs and tooling.
package catalog

import (
	"context"

	"content-orchestrator/internal/models"
)

// Source is the read surface the pipeline runner loads input from.
type Source interface {
	Resources(ctx context.Context, workspaceID string) ([]models.Resource, error)
	Templates(ctx context.Context, workspaceID string) ([]models.Template, error)
	Workspace(ctx context.Context, workspaceID string) (models.WorkspaceProfile, error)
}
