// internal/models/plan.go
package models

import "time"

// MaxSlots caps the number of publication slots a temporal plan may hold.
// Pathological windows are truncated to this size with a warning instead of
// failing the run.
const MaxSlots = 10000

// TimeSlot is one scheduled publication opportunity. Created only by the
// temporal scheduler and immutable afterwards.
type TimeSlot struct {
	ID            string    `json:"id"`
	Order         int       `json:"order"`
	Timestamp     time.Time `json:"timestamp"`
	ScheduledDate string    `json:"scheduledDate"`
}

// TemporalPlan is the ordered set of slots for a campaign window.
// Slots are strictly increasing in both time and order.
type TemporalPlan struct {
	CampaignID    string     `json:"campaignId"`
	Slots         []TimeSlot `json:"slots"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	IntervalHours float64    `json:"intervalHours"`
	Truncated     bool       `json:"truncated,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
}

// SlotCount returns the number of slots in the plan.
func (p *TemporalPlan) SlotCount() int {
	return len(p.Slots)
}
