// internal/models/consolidated.go
package models

// Per-slot validation statuses assigned during consolidation.
const (
	ValidationPassed  = "passed"
	ValidationWarning = "warning"
	ValidationError   = "error"
)

// ConsolidatedSlot is the read-only projection joining a time slot, its idea
// and the matching template descriptor (nil when the reference dangles).
type ConsolidatedSlot struct {
	Slot             TimeSlot            `json:"slot"`
	Idea             ContentIdea         `json:"idea"`
	Template         *TemplateDescriptor `json:"template,omitempty"`
	ValidationStatus string              `json:"validationStatus"`
}

// PlanStatistics are the frequency-distribution tables computed by simple
// counting over the consolidated slots.
type PlanStatistics struct {
	ByNetwork        map[string]int `json:"byNetwork"`
	ByFormat         map[string]int `json:"byFormat"`
	ByContrastBucket map[string]int `json:"byContrastBucket"`
	ByResource       map[string]int `json:"byResource"`
	ByTemplate       map[string]int `json:"byTemplate"`
}

// ConsolidatedContentPlan is the consolidation stage output.
type ConsolidatedContentPlan struct {
	Slots      []ConsolidatedSlot `json:"slots"`
	Statistics PlanStatistics     `json:"statistics"`
}
