package service

import (
	"time"

	"shortlink/internal/analytics"
	"shortlink/internal/domain"
)

// dateLayout keys the per-day histogram by ISO date
const dateLayout = "2006-01-02"

// historyDays is the clicks-by-day look-back window, today included
const historyDays = 7

// recentClickLimit caps the newest-first recency slice
const recentClickLimit = 20

// clickAggregate holds the per-link distributions computed from click records
type clickAggregate struct {
	ClicksByDay  map[string]int64
	Devices      map[string]int64
	Browsers     map[string]int64
	RecentClicks []domain.ClickRecord
}

// aggregateClicks computes the per-day histogram, the categorical
// distributions, and the recency slice in a single pass over the records.
// Records must already be ordered newest first. Days with zero clicks are
// present with an explicit zero; empty categories fold into "Unknown".
func aggregateClicks(records []domain.ClickRecord, now time.Time) clickAggregate {
	agg := clickAggregate{
		ClicksByDay: make(map[string]int64, historyDays),
		Devices:     make(map[string]int64),
		Browsers:    make(map[string]int64),
	}

	for i := 0; i < historyDays; i++ {
		day := now.AddDate(0, 0, -i).Format(dateLayout)
		agg.ClicksByDay[day] = 0
	}

	for _, record := range records {
		day := record.ClickedAt.Format(dateLayout)
		if _, inWindow := agg.ClicksByDay[day]; inWindow {
			agg.ClicksByDay[day]++
		}

		device := record.DeviceType
		if device == "" {
			device = analytics.Unknown
		}
		agg.Devices[device]++

		browser := record.Browser
		if browser == "" {
			browser = analytics.Unknown
		}
		agg.Browsers[browser]++
	}

	recent := records
	if len(recent) > recentClickLimit {
		recent = recent[:recentClickLimit]
	}
	agg.RecentClicks = recent

	return agg
}
