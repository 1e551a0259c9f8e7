package scheduling

import (
	"reflect"
	"testing"
	"time"
)

func TestGenerateSlots_MondayMorning(t *testing.T) {
	day := mustDate(monday)
	slots, err := GenerateSlots(mondayRule(), day, SlotOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].StartTime.Equal(at(day, 9, 0)) || !slots[0].EndTime.Equal(at(day, 9, 30)) {
		t.Fatalf("unexpected first slot %s-%s", slots[0].StartTime, slots[0].EndTime)
	}
	if !slots[1].StartTime.Equal(at(day, 9, 30)) || !slots[1].EndTime.Equal(at(day, 10, 0)) {
		t.Fatalf("unexpected second slot %s-%s", slots[1].StartTime, slots[1].EndTime)
	}
}

func TestGenerateSlots_ContiguousAscending(t *testing.T) {
	day := mustDate(monday)
	for _, duration := range []int{5, 15, 20, 30, 45, 60, 90} {
		rule := mondayRule()
		rule.StartTime = "08:00"
		rule.EndTime = "17:00"
		rule.SlotDurationMinutes = duration

		slots, err := GenerateSlots(rule, day, SlotOptions{})
		if err != nil {
			t.Fatalf("duration %d: %v", duration, err)
		}
		if len(slots) == 0 {
			t.Fatalf("duration %d: no slots", duration)
		}
		if !slots[0].StartTime.Equal(at(day, 8, 0)) {
			t.Fatalf("duration %d: first slot starts at %s", duration, slots[0].StartTime)
		}
		for i, s := range slots {
			if !s.StartTime.Before(s.EndTime) {
				t.Fatalf("duration %d: slot %d not forward", duration, i)
			}
			if s.EndTime.Sub(s.StartTime) != time.Duration(duration)*time.Minute || s.DurationMinutes != duration {
				t.Fatalf("duration %d: slot %d has length %s", duration, i, s.EndTime.Sub(s.StartTime))
			}
			if i > 0 && !slots[i-1].EndTime.Equal(s.StartTime) {
				t.Fatalf("duration %d: gap between slot %d and %d", duration, i-1, i)
			}
			if !s.StartTime.Before(at(day, 17, 0)) {
				t.Fatalf("duration %d: slot %d starts at or after window end", duration, i)
			}
		}
	}
}

func TestGenerateSlots_IsPure(t *testing.T) {
	day := mustDate(monday)
	a, err := GenerateSlots(mondayRule(), day, SlotOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateSlots(mondayRule(), day, SlotOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical sequences, got %v and %v", a, b)
	}
}

func TestGenerateSlots_LastSlotMayOverrun(t *testing.T) {
	day := mustDate(monday)
	rule := mondayRule()
	rule.SlotDurationMinutes = 45

	slots, err := GenerateSlots(rule, day, SlotOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[1].EndTime.Equal(at(day, 10, 30)) {
		t.Fatalf("expected overrun to 10:30, got %s", slots[1].EndTime)
	}

	clamped, err := GenerateSlots(rule, day, SlotOptions{ClampToWindow: true})
	if err != nil {
		t.Fatalf("generate clamped: %v", err)
	}
	if len(clamped) != 1 || !clamped[0].EndTime.Equal(at(day, 9, 45)) {
		t.Fatalf("expected single 09:00-09:45 slot when clamped, got %v", clamped)
	}
}

func TestGenerateSlots_DefaultsDurationAndRejectsBadClock(t *testing.T) {
	day := mustDate(monday)
	rule := mondayRule()
	rule.SlotDurationMinutes = 0
	slots, err := GenerateSlots(rule, day, SlotOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 2 || slots[0].DurationMinutes != 30 {
		t.Fatalf("expected two default 30 minute slots, got %v", slots)
	}

	rule.EndTime = "late"
	if _, err := GenerateSlots(rule, day, SlotOptions{}); err == nil {
		t.Fatalf("expected error for malformed end time")
	}
}

func TestTotalSlots(t *testing.T) {
	day := mustDate(monday)
	rule := mondayRule()
	rule.SlotDurationMinutes = 45
	n, err := TotalSlots(rule, day)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 whole slot, got %d", n)
	}
}
