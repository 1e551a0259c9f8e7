package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AppointmentReader returns a doctor's appointments on date (YYYY-MM-DD),
// leaving out the given statuses.
type AppointmentReader interface {
	FindAppointments(ctx context.Context, doctorID, date string, excludeStatuses ...model.AppointmentStatus) ([]model.Appointment, error)
}

// Store is everything the booking checks read. Pass a transaction-bound
// implementation when the result guards a write.
type Store interface {
	RuleReader
	AppointmentReader
}

type Options struct {
	// Location is the clinic's zone; dates and clock times are read in it.
	Location *time.Location
	// LegacyDurationMinutes is the assumed length of stored appointments
	// without an end time when validating a new booking.
	LegacyDurationMinutes int
	ClampToWindow         bool
	// RequireWithinAvailability rejects bookings outside the day's rule window.
	RequireWithinAvailability bool
}

// Service holds configuration only. Every call receives its store explicitly.
type Service struct {
	loc           *time.Location
	legacyEnd     time.Duration
	slotOpts      SlotOptions
	requireWithin bool
	tracer        trace.Tracer
}

func NewService(opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	legacy := opts.LegacyDurationMinutes
	if legacy <= 0 {
		legacy = model.DefaultSlotDurationMinutes
	}
	return &Service{
		loc:           loc,
		legacyEnd:     minutes(legacy),
		slotOpts:      SlotOptions{ClampToWindow: opts.ClampToWindow},
		requireWithin: opts.RequireWithinAvailability,
		tracer:        otel.Tracer("clinic-scheduling"),
	}
}

// ParseDate reads a YYYY-MM-DD date in the clinic's zone.
func (s *Service) ParseDate(raw string) (time.Time, error) {
	return ParseDate(raw, s.loc)
}

// Availability is the bookable view of one doctor-day.
type Availability struct {
	Date        string `json:"date"`
	DayOfWeek   int    `json:"day_of_week"`
	Available   bool   `json:"available"`
	Slots       []Slot `json:"available_slots"`
	TotalSlots  int    `json:"total_slots"`
	BookedCount int    `json:"booked_slots"`
	Message     string `json:"message,omitempty"`
}

// FindAvailableSlots lists the slots of the doctor's rule for date that no
// active appointment touches. A day without a rule is not an error.
func (s *Service) FindAvailableSlots(ctx context.Context, store Store, doctorID string, date time.Time) (Availability, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.find_available_slots", trace.WithAttributes(
		attribute.String("doctor.id", doctorID),
		attribute.String("date", date.Format(DateLayout)),
	))
	defer span.End()

	out := Availability{
		Date:      date.Format(DateLayout),
		DayOfWeek: int(date.Weekday()),
		Slots:     []Slot{},
	}

	rule, ok, err := ResolveRuleForDate(ctx, store, doctorID, date)
	if err != nil {
		return fail(span, Availability{}, err)
	}
	if !ok {
		out.Message = "No availability for this day"
		return out, nil
	}

	candidates, err := GenerateSlots(rule, date, s.slotOpts)
	if err != nil {
		return fail(span, Availability{}, err)
	}
	total, err := TotalSlots(rule, date)
	if err != nil {
		return fail(span, Availability{}, err)
	}

	existing, err := store.FindAppointments(ctx, doctorID, out.Date, model.StatusCancelled)
	if err != nil {
		return fail(span, Availability{}, err)
	}

	fallback := minutes(slotDurationMinutes(rule))
	booked := make([][2]time.Time, 0, len(existing))
	for _, appt := range existing {
		start, end, err := appointmentInterval(date, appt, fallback)
		if err != nil {
			return fail(span, Availability{}, err)
		}
		booked = append(booked, [2]time.Time{start, end})
	}

	for _, slot := range candidates {
		if !slotTaken(slot, booked) {
			out.Slots = append(out.Slots, slot)
		}
	}
	out.TotalSlots = total
	out.BookedCount = len(existing)
	out.Available = len(out.Slots) > 0
	span.SetAttributes(attribute.Int("slots.available", len(out.Slots)))
	return out, nil
}

// slotTaken treats a slot as taken when it starts inside, ends inside, or
// contains a booked interval.
func slotTaken(slot Slot, booked [][2]time.Time) bool {
	cs, ce := slot.StartTime, slot.EndTime
	for _, b := range booked {
		as, ae := b[0], b[1]
		startsInside := !cs.Before(as) && cs.Before(ae)
		endsInside := ce.After(as) && !ce.After(ae)
		contains := !cs.After(as) && !ce.Before(ae)
		if startsInside || endsInside || contains {
			return true
		}
	}
	return false
}

// BookingRequest is a literal interval a patient asks for.
type BookingRequest struct {
	DoctorID  string
	Date      time.Time
	StartTime string
	EndTime   string
	// ExcludeStatuses defaults to cancelled.
	ExcludeStatuses []model.AppointmentStatus
}

// Booking is an accepted interval with clocks normalised to HH:MM:SS.
type Booking struct {
	Start      time.Time
	End        time.Time
	StartClock string
	EndClock   string
}

// ValidateNewBooking checks the requested interval against the doctor's other
// appointments that day. It does not consult the slot grid.
func (s *Service) ValidateNewBooking(ctx context.Context, store Store, req BookingRequest) (Booking, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.validate_new_booking", trace.WithAttributes(
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("date", req.Date.Format(DateLayout)),
	))
	defer span.End()

	start, err := Combine(req.Date, req.StartTime)
	if err != nil {
		return fail(span, Booking{}, err)
	}
	end, err := Combine(req.Date, req.EndTime)
	if err != nil {
		return fail(span, Booking{}, err)
	}
	if !end.After(start) {
		return fail(span, Booking{}, ErrInvalidInterval)
	}

	if s.requireWithin {
		if err := s.checkWithinAvailability(ctx, store, req.DoctorID, req.Date, start, end); err != nil {
			return fail(span, Booking{}, err)
		}
	}

	exclude := req.ExcludeStatuses
	if len(exclude) == 0 {
		exclude = []model.AppointmentStatus{model.StatusCancelled}
	}
	existing, err := store.FindAppointments(ctx, req.DoctorID, req.Date.Format(DateLayout), exclude...)
	if err != nil {
		return fail(span, Booking{}, err)
	}
	for _, appt := range existing {
		as, ae, err := appointmentInterval(req.Date, appt, s.legacyEnd)
		if err != nil {
			return fail(span, Booking{}, err)
		}
		if Overlaps(start, end, as, ae) {
			return fail(span, Booking{}, fmt.Errorf("%w (%s-%s)", ErrConflict, as.Format("15:04"), ae.Format("15:04")))
		}
	}

	return Booking{
		Start:      start,
		End:        end,
		StartClock: start.Format("15:04:05"),
		EndClock:   end.Format("15:04:05"),
	}, nil
}

func (s *Service) checkWithinAvailability(ctx context.Context, store Store, doctorID string, date, start, end time.Time) error {
	rule, ok, err := ResolveRuleForDate(ctx, store, doctorID, date)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOutsideAvailability
	}
	windowStart, windowEnd, err := ruleWindow(rule, date)
	if err != nil {
		return err
	}
	if start.Before(windowStart) || end.After(windowEnd) {
		return ErrOutsideAvailability
	}
	return nil
}

func fail[T any](span trace.Span, zero T, err error) (T, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return zero, err
}
