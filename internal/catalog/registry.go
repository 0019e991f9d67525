// internal/catalog/registry.go
package catalog

import (
	"context"
	"fmt"

	"content-orchestrator/internal/models"
	"content-orchestrator/pkg/registry"
)

// RegistryStore serves the catalog from a validated JSON document. Used by
// local runs and the catalog tooling.
type RegistryStore struct {
	doc *registry.CatalogDocument
}

func NewRegistryStore(path string) (*RegistryStore, error) {
	doc, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	return &RegistryStore{doc: doc}, nil
}

func (s *RegistryStore) entry(workspaceID string) (*registry.WorkspaceEntry, error) {
	entry := s.doc.Workspace(workspaceID)
	if entry == nil {
		return nil, fmt.Errorf("workspace %q not in catalog document", workspaceID)
	}
	return entry, nil
}

func (s *RegistryStore) Resources(_ context.Context, workspaceID string) ([]models.Resource, error) {
	entry, err := s.entry(workspaceID)
	if err != nil {
		return nil, err
	}
	return entry.Resources, nil
}

func (s *RegistryStore) Templates(_ context.Context, workspaceID string) ([]models.Template, error) {
	entry, err := s.entry(workspaceID)
	if err != nil {
		return nil, err
	}
	return entry.Templates, nil
}

func (s *RegistryStore) Workspace(_ context.Context, workspaceID string) (models.WorkspaceProfile, error) {
	entry, err := s.entry(workspaceID)
	if err != nil {
		return models.WorkspaceProfile{}, err
	}
	return entry.Workspace, nil
}
