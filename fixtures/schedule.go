package fixtures

import (
	"fmt"
	"time"

	"github.com/pitchside/efootball-arena/models"
)

// PlanTimes assigns kick-off times for n matches in generation order. It
// walks forward day by day from start, skipping weekdays the configuration
// does not allow, fills each day up to the per-day cap beginning at the
// configured start time, and spaces matches by match duration plus break.
func PlanTimes(cfg *models.ScheduleConfig, start time.Time, n int) ([]time.Time, error) {
	if cfg.MatchMinutes <= 0 || cfg.MatchesPerDay <= 0 {
		return nil, fmt.Errorf("schedule: match_minutes and matches_per_day must be positive")
	}

	startHour, startMinute, err := parseDailyStart(cfg.DailyStart)
	if err != nil {
		return nil, err
	}

	spacing := time.Duration(cfg.MatchMinutes+cfg.BreakMinutes) * time.Minute

	times := make([]time.Time, 0, n)
	day := start
	for len(times) < n {
		if !weekdayAllowed(cfg.Weekdays, day.Weekday()) {
			day = day.AddDate(0, 0, 1)
			continue
		}
		slot := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMinute, 0, 0, day.Location())
		for i := 0; i < cfg.MatchesPerDay && len(times) < n; i++ {
			times = append(times, slot)
			slot = slot.Add(spacing)
		}
		day = day.AddDate(0, 0, 1)
	}

	return times, nil
}

func parseDailyStart(s string) (hour, minute int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule: invalid daily_start %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// An empty weekday list allows every day.
func weekdayAllowed(allowed []time.Weekday, d time.Weekday) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, w := range allowed {
		if w == d {
			return true
		}
	}
	return false
}
