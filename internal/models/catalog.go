// internal/models/catalog.go
package models

// Resource is a media asset available to a campaign, supplied read-only by
// the persistence layer.
type Resource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Template is a design template available to a campaign.
type Template struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	SocialNetworks []string `json:"socialNetworks"`
	Images         []string `json:"images,omitempty"`
}

// WorkspaceProfile carries the branding context embedded in generation
// prompts and checked by the quality gate.
type WorkspaceProfile struct {
	Name           string `json:"name"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	Slogan         string `json:"slogan"`
	Description    string `json:"description,omitempty"`
}
