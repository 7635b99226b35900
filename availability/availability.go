// Package availability aggregates per-date slot inventory into the ordered
// list of dates that still have open capacity.
package availability

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"darshan-notifier/pkg/booking"
	"darshan-notifier/upstream"
)

// dateKeyLayout is the upstream's date key format (no zero padding).
const dateKeyLayout = "2006-1-2"

// Fetcher interface for retrieving summary and detail data.
type Fetcher interface {
	FetchSummary(ctx context.Context, token string, kind booking.Kind) (*upstream.Summary, error)
	FetchDetail(ctx context.Context, token string, kind booking.Kind, date string) (*upstream.Detail, error)
}

// Aggregator turns upstream summary+detail responses into AvailableSlot lists.
type Aggregator struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new aggregator.
func New(fetcher Fetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// AvailableDates extracts candidate dates from a summary: the explicit
// available-dates list, deduplicated, restricted to dates on or after today,
// in ascending chronological order. Entries that don't parse as date keys
// are dropped.
func AvailableDates(summary *upstream.Summary, today time.Time) []string {
	if summary == nil || len(summary.AvailableDatesList) == 0 {
		return nil
	}

	cutoff := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	type dated struct {
		key string
		t   time.Time
	}
	seen := make(map[string]bool, len(summary.AvailableDatesList))
	var candidates []dated
	for _, key := range summary.AvailableDatesList {
		if seen[key] {
			continue
		}
		seen[key] = true

		t, err := time.ParseInLocation(dateKeyLayout, key, today.Location())
		if err != nil {
			continue
		}
		if t.Before(cutoff) {
			continue
		}
		candidates = append(candidates, dated{key: key, t: t})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].t.Before(candidates[j].t) })

	dates := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dates = append(dates, c.key)
	}
	return dates
}

// AvailableSlots returns every date with at least one open slot for the given
// kind, in ascending date order. A missing or unreachable summary degrades to
// an empty result; a failed per-date detail fetch skips just that date. Only
// auth failures propagate, so the caller can distinguish an expired token
// from a quiet calendar.
func (a *Aggregator) AvailableSlots(ctx context.Context, token string, kind booking.Kind) ([]booking.AvailableSlot, error) {
	summary, err := a.fetcher.FetchSummary(ctx, token, kind)
	if err != nil {
		if booking.IsUnauthorized(err) {
			return nil, err
		}
		a.logger.Warn("Summary fetch failed, treating as no availability", "kind", kind, "error", err)
		return nil, nil
	}

	dates := AvailableDates(summary, a.now())
	a.logger.Info("Candidate dates extracted", "kind", kind, "count", len(dates))

	var available []booking.AvailableSlot
	for _, date := range dates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		detail, err := a.fetcher.FetchDetail(ctx, token, kind, date)
		if err != nil {
			if booking.IsUnauthorized(err) {
				return nil, err
			}
			a.logger.Warn("Detail fetch failed, skipping date", "kind", kind, "date", date, "error", err)
			continue
		}

		var open []booking.Slot
		for _, slot := range detail.Slots {
			if slot.TicketsAvailable > 0 {
				open = append(open, slot)
			}
		}
		if len(open) == 0 {
			continue
		}

		available = append(available, booking.AvailableSlot{
			Date:          date,
			FormattedDate: open[0].Date,
			Slots:         open,
			MinPersons:    detail.MinPersons,
			MaxPersons:    detail.MaxPersons,
			Price:         detail.Price,
		})
	}

	a.logger.Info("Aggregation completed", "kind", kind, "dates_with_availability", len(available))
	return available, nil
}
