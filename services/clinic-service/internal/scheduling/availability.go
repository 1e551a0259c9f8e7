package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
)

// RuleReader looks up the active availability rule for a doctor's weekday.
// ok=false means the doctor has no hours that day.
type RuleReader interface {
	FindActiveRule(ctx context.Context, doctorID string, weekday time.Weekday) (rule model.AvailabilityRule, ok bool, err error)
}

// Actor is the authenticated caller as seen by the scheduling rules.
type Actor struct {
	UserID string
	Role   model.Role
}

func ResolveRuleForDate(ctx context.Context, store RuleReader, doctorID string, date time.Time) (model.AvailabilityRule, bool, error) {
	return store.FindActiveRule(ctx, doctorID, date.Weekday())
}

// AuthorizeRuleMutation allows the doctor who owns the schedule, or an admin.
func AuthorizeRuleMutation(actor Actor, doctor model.Doctor) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.UserID != "" && actor.UserID == doctor.UserID {
		return nil
	}
	return ErrUnauthorized
}

// CanViewDoctor hides unapproved doctors from everyone but admins and the
// doctor themself.
func CanViewDoctor(actor Actor, doctor model.Doctor) bool {
	if doctor.IsApproved {
		return true
	}
	return AuthorizeRuleMutation(actor, doctor) == nil
}

// NormalizeRule fills defaults and rewrites clock fields as HH:MM:SS, then validates.
func NormalizeRule(rule model.AvailabilityRule) (model.AvailabilityRule, error) {
	if rule.SlotDurationMinutes == 0 {
		rule.SlotDurationMinutes = model.DefaultSlotDurationMinutes
	}
	if err := ValidateRule(rule); err != nil {
		return model.AvailabilityRule{}, err
	}
	rule.StartTime, _ = NormalizeClock(rule.StartTime)
	rule.EndTime, _ = NormalizeClock(rule.EndTime)
	return rule, nil
}

func ValidateRule(rule model.AvailabilityRule) error {
	if strings.TrimSpace(rule.DoctorID) == "" {
		return fmt.Errorf("%w: doctor is required", ErrInvalidRule)
	}
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidRule)
	}
	if rule.SlotDurationMinutes <= 0 || rule.SlotDurationMinutes > 24*60 {
		return fmt.Errorf("%w: slot duration must be between 1 and 1440 minutes", ErrInvalidRule)
	}
	start, err := ParseClock(rule.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(rule.EndTime)
	if err != nil {
		return err
	}
	if end.Offset() <= start.Offset() {
		return ErrInvalidInterval
	}
	return nil
}

// RulePatch is a partial update. Nil fields are left unchanged.
type RulePatch struct {
	DoctorID            *string
	DayOfWeek           *int
	StartTime           *string
	EndTime             *string
	SlotDurationMinutes *int
	IsActive            *bool
}

// ApplyRuleUpdate merges patch into existing. The owning doctor cannot change.
func ApplyRuleUpdate(existing model.AvailabilityRule, patch RulePatch, pathDoctorID string) (model.AvailabilityRule, error) {
	if existing.DoctorID != pathDoctorID {
		return model.AvailabilityRule{}, ErrNotFound
	}
	if patch.DoctorID != nil && *patch.DoctorID != existing.DoctorID {
		return model.AvailabilityRule{}, fmt.Errorf("%w: doctor_id", ErrImmutableField)
	}

	updated := existing
	if patch.DayOfWeek != nil {
		updated.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		updated.EndTime = *patch.EndTime
	}
	if patch.SlotDurationMinutes != nil {
		updated.SlotDurationMinutes = *patch.SlotDurationMinutes
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}
	if err := ValidateRule(updated); err != nil {
		return model.AvailabilityRule{}, err
	}
	updated.StartTime, _ = NormalizeClock(updated.StartTime)
	updated.EndTime, _ = NormalizeClock(updated.EndTime)
	return updated, nil
}
