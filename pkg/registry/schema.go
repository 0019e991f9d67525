// pkg/registry/schema.go
package registry

import "content-orchestrator/internal/models"

// CatalogDocument is the JSON catalog file format used by local runs and
// tooling in place of the Postgres catalog.
type CatalogDocument struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Workspaces  []WorkspaceEntry `json:"workspaces"`
}

// WorkspaceEntry bundles one workspace's branding profile with its resource
// and template catalogs.
type WorkspaceEntry struct {
	ID        string                  `json:"id"`
	Workspace models.WorkspaceProfile `json:"workspace"`
	Resources []models.Resource       `json:"resources"`
	Templates []models.Template       `json:"templates"`
}

// catalogSchema is enforced on load so malformed catalog files fail fast
// with a pointer to the offending field instead of surfacing mid-pipeline.
const catalogSchema = `{
	"type": "object",
	"required": ["version", "workspaces"],
	"properties": {
		"version": {"type": "string"},
		"lastUpdated": {"type": "string"},
		"workspaces": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "workspace", "templates"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"workspace": {
						"type": "object",
						"required": ["name"],
						"properties": {
							"name": {"type": "string", "minLength": 1}
						}
					},
					"resources": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "name", "type"],
							"properties": {
								"id": {"type": "string", "minLength": 1}
							}
						}
					},
					"templates": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["id", "name", "type"],
							"properties": {
								"id": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`
