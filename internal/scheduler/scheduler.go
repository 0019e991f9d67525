// internal/scheduler/scheduler.go

// Package scheduler computes deterministic publication timetables. It is
// pure: no I/O, no backend calls, same output for same input.
package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/models"
)

const (
	// MinIntervalHours and MaxIntervalHours bound the publishing cadence.
	MinIntervalHours = 0.5
	MaxIntervalHours = 168

	// MaxWindowDays bounds the campaign window length.
	MaxWindowDays = 365

	// ConflictThreshold is the fixed proximity below which two slots are
	// considered to collide.
	ConflictThreshold = 30 * time.Minute
)

// ParseWindow parses the ISO-8601 campaign window strings.
func ParseWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, pipeerrors.NewInvalidCampaignWindowError(
			fmt.Sprintf("startDate %q: %v", startDate, err))
	}
	end, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, pipeerrors.NewInvalidCampaignWindowError(
			fmt.Sprintf("endDate %q: %v", endDate, err))
	}
	return start, end, nil
}

// ValidateWindow checks the campaign window ordering, length and cadence
// bounds. The pipeline runs it before issuing any backend call; ComputeSlots
// runs it again so the package stays safe to use on its own.
func ValidateWindow(start, end time.Time, intervalHours float64) error {
	if !start.Before(end) {
		return pipeerrors.NewInvalidCampaignWindowError(
			fmt.Sprintf("start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	if intervalHours < MinIntervalHours || intervalHours > MaxIntervalHours {
		return pipeerrors.NewInvalidIntervalError(intervalHours)
	}
	if end.Sub(start) > MaxWindowDays*24*time.Hour {
		return pipeerrors.NewWindowTooLargeError(
			fmt.Sprintf("window spans %.1f days", end.Sub(start).Hours()/24))
	}
	return nil
}

// ComputeSlots builds the temporal plan for a campaign window. Slot 0 lands
// exactly on start; subsequent slots step by intervalHours while they fit in
// the window. Emission stops at models.MaxSlots with a warning instead of an
// error.
func ComputeSlots(campaignID string, start, end time.Time, intervalHours float64) (*models.TemporalPlan, error) {
	if err := ValidateWindow(start, end, intervalHours); err != nil {
		return nil, err
	}

	plan := &models.TemporalPlan{
		CampaignID:    campaignID,
		StartDate:     start,
		EndDate:       end,
		IntervalHours: intervalHours,
	}

	step := time.Duration(intervalHours * float64(time.Hour))
	order := 0
	for t := start; !t.After(end); t = t.Add(step) {
		if order >= models.MaxSlots {
			plan.Truncated = true
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("slot emission stopped at the %d-slot safety cap", models.MaxSlots))
			break
		}
		plan.Slots = append(plan.Slots, models.TimeSlot{
			ID:            uuid.NewString(),
			Order:         order,
			Timestamp:     t,
			ScheduledDate: t.Format(time.RFC3339),
		})
		order++
	}

	return plan, nil
}

// SnapToPreferredHours rounds every slot to the nearest preferred hour of the
// same day by absolute difference, ties broken toward the first listed hour.
// The input plan is not mutated. An empty preferred set returns the plan
// unchanged.
func SnapToPreferredHours(plan *models.TemporalPlan, preferredHours []int) *models.TemporalPlan {
	if len(preferredHours) == 0 {
		return plan
	}

	snapped := *plan
	snapped.Slots = make([]models.TimeSlot, len(plan.Slots))
	for i, slot := range plan.Slots {
		best := slot.Timestamp
		bestDiff := time.Duration(-1)
		for _, hour := range preferredHours {
			y, m, d := slot.Timestamp.Date()
			candidate := time.Date(y, m, d, hour, 0, 0, 0, slot.Timestamp.Location())
			diff := absDuration(candidate.Sub(slot.Timestamp))
			if bestDiff < 0 || diff < bestDiff {
				best = candidate
				bestDiff = diff
			}
		}
		snapped.Slots[i] = models.TimeSlot{
			ID:            slot.ID,
			Order:         slot.Order,
			Timestamp:     best,
			ScheduledDate: best.Format(time.RFC3339),
		}
	}
	return &snapped
}

// Conflict reports a slot landing within ConflictThreshold of a pre-existing
// publication time.
type Conflict struct {
	SlotID       string        `json:"slotId"`
	SlotTime     time.Time     `json:"slotTime"`
	ExistingTime time.Time     `json:"existingTime"`
	Delta        time.Duration `json:"delta"`
}

// DetectConflicts compares every slot pairwise against the existing set.
func DetectConflicts(slots []models.TimeSlot, existing []time.Time) []Conflict {
	var conflicts []Conflict
	for _, slot := range slots {
		for _, t := range existing {
			delta := absDuration(slot.Timestamp.Sub(t))
			if delta < ConflictThreshold {
				conflicts = append(conflicts, Conflict{
					SlotID:       slot.ID,
					SlotTime:     slot.Timestamp,
					ExistingTime: t,
					Delta:        delta,
				})
			}
		}
	}
	return conflicts
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
