// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `{
	"version": "1.0.0",
	"lastUpdated": "2025-06-01",
	"workspaces": [
		{
			"id": "ws-1",
			"workspace": {"name": "Solara Coffee", "primaryColor": "#4A2C1A"},
			"resources": [
				{"id": "res-1", "name": "Logo", "type": "image", "url": "https://x/logo.png", "mimeType": "image/png"}
			],
			"templates": [
				{"id": "tpl-1", "name": "Highlight", "type": "single", "socialNetworks": ["instagram"]}
			]
		}
	]
}`

func TestParse_ValidDocument(t *testing.T) {
	doc, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", doc.Version)
	require.Len(t, doc.Workspaces, 1)

	entry := doc.Workspace("ws-1")
	require.NotNil(t, entry)
	assert.Equal(t, "Solara Coffee", entry.Workspace.Name)
	require.Len(t, entry.Resources, 1)
	require.Len(t, entry.Templates, 1)
	assert.Equal(t, "tpl-1", entry.Templates[0].ID)

	assert.Nil(t, doc.Workspace("ws-ghost"))
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "missing version", data: `{"workspaces": []}`},
		{name: "missing workspaces", data: `{"version": "1"}`},
		{name: "workspace without id", data: `{"version": "1", "workspaces": [{"workspace": {"name": "x"}, "templates": []}]}`},
		{name: "workspace without templates", data: `{"version": "1", "workspaces": [{"id": "w", "workspace": {"name": "x"}}]}`},
		{name: "template without id", data: `{"version": "1", "workspaces": [{"id": "w", "workspace": {"name": "x"}, "templates": [{"name": "t", "type": "single"}]}]}`},
		{name: "empty workspace name", data: `{"version": "1", "workspaces": [{"id": "w", "workspace": {"name": ""}, "templates": []}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid catalog document")
		})
	}
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)
}

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, doc.Workspace("ws-1"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
