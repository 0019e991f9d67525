// internal/models/campaign.go
package models

// CampaignBrief is the marketing brief a pipeline run is built from.
// StartDate and EndDate are ISO-8601 strings as received from the caller;
// they are parsed and validated before any backend call is made.
type CampaignBrief struct {
	ID             string   `json:"id"`
	WorkspaceID    string   `json:"workspaceId"`
	Name           string   `json:"name"`
	Objective      string   `json:"objective"`
	Description    string   `json:"description,omitempty"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	IntervalHours  float64  `json:"intervalHours"`
	TargetNetworks []string `json:"targetNetworks"`
	PreferredHours []int    `json:"preferredHours,omitempty"`
}

// Restrictions are keywords that must not appear in generated content.
type Restrictions struct {
	Keywords []string `json:"keywords"`
	Notes    string   `json:"notes,omitempty"`
}

// Objectives carries the secondary goals cycled through fallback ideas.
type Objectives struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
}
