package scheduling

import (
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// Slot is a candidate bookable interval. It is computed per request and never stored.
type Slot struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration"`
}

type SlotOptions struct {
	// ClampToWindow drops a trailing slot that would end after the rule's end time.
	ClampToWindow bool
}

// GenerateSlots walks the rule's window on date in steps of the slot duration.
// A slot is emitted for every cursor strictly before the window end, so without
// ClampToWindow the last slot can run past the end by less than one duration.
func GenerateSlots(rule model.AvailabilityRule, date time.Time, opts SlotOptions) ([]Slot, error) {
	windowStart, windowEnd, err := ruleWindow(rule, date)
	if err != nil {
		return nil, err
	}
	durationMinutes := slotDurationMinutes(rule)
	step := minutes(durationMinutes)

	slots := []Slot{}
	for cursor := windowStart; cursor.Before(windowEnd); cursor = cursor.Add(step) {
		end := cursor.Add(step)
		if opts.ClampToWindow && end.After(windowEnd) {
			break
		}
		slots = append(slots, Slot{StartTime: cursor, EndTime: end, DurationMinutes: durationMinutes})
	}
	return slots, nil
}

// TotalSlots is the number of whole slots that fit in the rule's window.
func TotalSlots(rule model.AvailabilityRule, date time.Time) (int, error) {
	windowStart, windowEnd, err := ruleWindow(rule, date)
	if err != nil {
		return 0, err
	}
	if !windowEnd.After(windowStart) {
		return 0, nil
	}
	return int(windowEnd.Sub(windowStart) / minutes(slotDurationMinutes(rule))), nil
}

func ruleWindow(rule model.AvailabilityRule, date time.Time) (time.Time, time.Time, error) {
	start, err := Combine(date, rule.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := Combine(date, rule.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func slotDurationMinutes(rule model.AvailabilityRule) int {
	if rule.SlotDurationMinutes <= 0 {
		return model.DefaultSlotDurationMinutes
	}
	return rule.SlotDurationMinutes
}
