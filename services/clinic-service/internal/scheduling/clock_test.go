package scheduling

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "09:00", want: "09:00:00"},
		{in: "9:05", want: "09:05:00"},
		{in: "23:59:59", want: "23:59:59"},
		{in: " 00:00 ", want: "00:00:00"},
		{in: "24:00", err: true},
		{in: "12:60", err: true},
		{in: "noon", err: true},
		{in: "", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			c, err := ParseClock(tc.in)
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("clinic", 6*3600)
	d, err := ParseDate("2026-01-05T14:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), d)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("2026-02-30", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDate("05/01/2026", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCombineKeepsLocation(t *testing.T) {
	loc := time.FixedZone("clinic", -5*3600)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	got, err := Combine(day, "14:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 30, 0, 0, loc), got)

	_, err = Combine(day, "2pm")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	day := mustDate(monday)
	for aStart := 0; aStart < 8; aStart++ {
		for aLen := 1; aLen < 4; aLen++ {
			for bStart := 0; bStart < 8; bStart++ {
				for bLen := 1; bLen < 4; bLen++ {
					as, ae := at(day, 9, aStart*15), at(day, 9, (aStart+aLen)*15)
					bs, be := at(day, 9, bStart*15), at(day, 9, (bStart+bLen)*15)
					if Overlaps(as, ae, bs, be) != Overlaps(bs, be, as, ae) {
						t.Fatalf("asymmetric overlap for [%s,%s) vs [%s,%s)", as, ae, bs, be)
					}
				}
			}
		}
	}
}

func TestOverlapsTouchingIsNotOverlap(t *testing.T) {
	day := mustDate(monday)
	assert.False(t, Overlaps(at(day, 9, 0), at(day, 10, 0), at(day, 10, 0), at(day, 10, 30)))
	assert.True(t, Overlaps(at(day, 9, 0), at(day, 10, 1), at(day, 10, 0), at(day, 10, 30)))
	assert.True(t, Overlaps(at(day, 9, 0), at(day, 12, 0), at(day, 10, 0), at(day, 10, 30)))
}

func TestEffectiveEnd(t *testing.T) {
	day := mustDate(monday)
	start := at(day, 9, 0)

	end, err := EffectiveEnd(model.Appointment{StartTime: "09:00:00", EndTime: "09:45:00"}, start, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(day, 9, 45), end)

	end, err = EffectiveEnd(model.Appointment{StartTime: "09:00:00"}, start, 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, at(day, 9, 20), end)
}
