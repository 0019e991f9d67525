// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/models"
)

// PostgresStore reads the catalog tables. Queries are scoped per workspace;
// rows are returned in name order so pipeline input order is stable.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Resources(ctx context.Context, workspaceID string) ([]models.Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, url, mime_type
		 FROM resources
		 WHERE workspace_id = $1
		 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, pipeerrors.NewCatalogQueryFailedError(err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.URL, &r.MimeType); err != nil {
			return nil, pipeerrors.NewCatalogQueryFailedError(err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pipeerrors.NewCatalogQueryFailedError(err)
	}
	return resources, nil
}

func (s *PostgresStore) Templates(ctx context.Context, workspaceID string) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, social_networks, images
		 FROM templates
		 WHERE workspace_id = $1
		 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, pipeerrors.NewCatalogQueryFailedError(err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var t models.Template
		var images []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, pq.Array(&t.SocialNetworks), &images); err != nil {
			return nil, pipeerrors.NewCatalogQueryFailedError(err)
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &t.Images); err != nil {
				return nil, pipeerrors.NewCatalogQueryFailedError(err)
			}
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, pipeerrors.NewCatalogQueryFailedError(err)
	}
	return templates, nil
}

func (s *PostgresStore) Workspace(ctx context.Context, workspaceID string) (models.WorkspaceProfile, error) {
	var w models.WorkspaceProfile
	err := s.db.QueryRowContext(ctx,
		`SELECT name, primary_color, secondary_color, slogan, description
		 FROM workspaces
		 WHERE id = $1`, workspaceID).
		Scan(&w.Name, &w.PrimaryColor, &w.SecondaryColor, &w.Slogan, &w.Description)
	if err != nil {
		return models.WorkspaceProfile{}, pipeerrors.NewCatalogQueryFailedError(err)
	}
	return w, nil
}
