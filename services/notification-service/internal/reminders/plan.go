package reminders

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
)

// ParseOffsets reads a comma-separated list of minutes ("1440,60"). Invalid
// entries are returned separately so the caller can log them.
func ParseOffsets(parts []string) (offsets []time.Duration, invalid []string) {
	seen := map[time.Duration]bool{}
	for _, part := range parts {
		mins, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || mins <= 0 {
			invalid = append(invalid, part)
			continue
		}
		d := time.Duration(mins) * time.Minute
		if !seen[d] {
			seen[d] = true
			offsets = append(offsets, d)
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] > offsets[j] })
	return offsets, invalid
}

// Plan returns one job per offset whose reminder time is still ahead of now.
func Plan(appt events.Appointment, offsets []time.Duration, now time.Time) []Job {
	if appt.AppointmentDate.IsZero() || strings.TrimSpace(appt.PatientEmail) == "" {
		return nil
	}
	var jobs []Job
	for _, off := range offsets {
		at := appt.AppointmentDate.Add(-off)
		if !at.After(now) {
			continue
		}
		jobs = append(jobs, Job{
			IdempotencyKey: fmt.Sprintf("%s:%d", appt.AppointmentID, int(off.Minutes())),
			AppointmentID:  appt.AppointmentID,
			Recipient:      appt.PatientEmail,
			RemindAt:       at.UTC(),
			Appointment:    appt,
		})
	}
	return jobs
}
