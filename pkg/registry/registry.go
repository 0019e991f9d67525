// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads and validates a catalog document from disk.
func Load(path string) (*CatalogDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates raw catalog JSON against the catalog schema and decodes it.
func Parse(data []byte) (*CatalogDocument, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog validation: %w", err)
	}
	if !result.Valid() {
		var violations []string
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}
		return nil, fmt.Errorf("invalid catalog document: %s", strings.Join(violations, "; "))
	}

	var doc CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}
	return &doc, nil
}

// Workspace returns the entry for the given workspace id, or nil.
func (d *CatalogDocument) Workspace(id string) *WorkspaceEntry {
	for i := range d.Workspaces {
		if d.Workspaces[i].ID == id {
			return &d.Workspaces[i]
		}
	}
	return nil
}
