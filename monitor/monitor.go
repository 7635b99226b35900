// Package monitor handles poll ticks: aggregating availability, diffing it
// against the previous snapshot, and triggering notifications.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"darshan-notifier/pkg/booking"
)

// SlotLister interface for aggregating current availability.
type SlotLister interface {
	AvailableSlots(ctx context.Context, token string, kind booking.Kind) ([]booking.AvailableSlot, error)
}

// Snapshots interface for the previous-state store.
type Snapshots interface {
	Get(kind booking.Kind) ([]booking.AvailableSlot, bool)
	Put(kind booking.Kind, snapshot []booking.AvailableSlot)
}

// Notifier interface for delivering change and test messages.
type Notifier interface {
	NotifyChanges(ctx context.Context, report booking.ChangeReport) bool
	NotifyTest(ctx context.Context, darshanCount, aartiCount int) bool
}

// Monitor runs poll ticks.
type Monitor struct {
	lister    SlotLister
	snapshots Snapshots
	notifier  Notifier
	logger    *slog.Logger

	// mu makes the diff/overwrite window of a tick atomic per store, so
	// concurrent poll invocations cannot interleave into a missed or
	// duplicated notification.
	mu sync.Mutex
}

// New creates a new poll monitor.
func New(lister SlotLister, snapshots Snapshots, notifier Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{
		lister:    lister,
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger,
	}
}

// DetectChanges compares the current aggregation against the previous
// snapshot for one kind. hasPrevious is false on the first tick after
// process start; a cold start never reports a change, so pre-existing
// availability does not fire spurious notifications.
//
// A change is a date present now but not before, or a date whose open-slot
// count strictly grew. Comparison is count-only: equal counts with different
// slot identities are not a change, and disappearing dates or shrinking
// counts are never reported. Order follows the current aggregation.
func DetectChanges(kind booking.Kind, current, previous []booking.AvailableSlot, hasPrevious bool) *booking.ChangeReport {
	if !hasPrevious {
		return nil
	}

	prevCounts := make(map[string]int, len(previous))
	for _, slot := range previous {
		prevCounts[slot.Date] = len(slot.Slots)
	}

	var changed []booking.AvailableSlot
	for _, slot := range current {
		prevCount, existed := prevCounts[slot.Date]
		if !existed || len(slot.Slots) > prevCount {
			changed = append(changed, slot)
		}
	}

	if len(changed) == 0 {
		return nil
	}
	return &booking.ChangeReport{Kind: kind, Changed: changed}
}

// RunTick executes one poll tick: aggregate both kinds, diff against the
// snapshot, notify on changes, overwrite the snapshot, and report what
// happened. The snapshot is overwritten even when delivery fails; it is not
// touched at all when aggregation fails, so a broken tick never leaves a
// partial baseline behind.
func (m *Monitor) RunTick(ctx context.Context, token string, testMode bool) (*booking.TickResult, error) {
	if token == "" {
		return nil, booking.NewUnauthorized("no auth token resolvable")
	}

	tickID := uuid.NewString()
	now := time.Now()
	m.logger.Info("Poll tick started", "tick_id", tickID, "test_mode", testMode)

	current := make(map[booking.Kind][]booking.AvailableSlot, len(booking.Kinds))
	for _, kind := range booking.Kinds {
		slots, err := m.lister.AvailableSlots(ctx, token, kind)
		if err != nil {
			m.logger.Error("Aggregation failed, aborting tick", "tick_id", tickID, "kind", kind, "error", err)
			return nil, err
		}
		current[kind] = slots
	}

	m.mu.Lock()
	reports := make(map[booking.Kind]*booking.ChangeReport, len(booking.Kinds))
	for _, kind := range booking.Kinds {
		previous, hasPrevious := m.snapshots.Get(kind)
		reports[kind] = DetectChanges(kind, current[kind], previous, hasPrevious)
		m.snapshots.Put(kind, current[kind])
	}
	m.mu.Unlock()

	result := &booking.TickResult{
		Success:          true,
		TickID:           tickID,
		Timestamp:        now,
		TestMode:         testMode,
		DarshanSlotCount: len(current[booking.Darshan]),
		AartiSlotCount:   len(current[booking.Aarti]),
	}

	for _, kind := range booking.Kinds {
		report := reports[kind]
		if report == nil {
			continue
		}
		m.logger.Info("Availability change detected",
			"tick_id", tickID,
			"kind", kind,
			"changed_dates", len(report.Changed))

		delivered := m.notifier.NotifyChanges(ctx, *report)
		switch kind {
		case booking.Darshan:
			result.Notifications.Darshan = delivered
		case booking.Aarti:
			result.Notifications.Aarti = delivered
		}
	}

	if testMode {
		result.Notifications.Test = m.notifier.NotifyTest(ctx, result.DarshanSlotCount, result.AartiSlotCount)
	}

	m.logger.Info("Poll tick completed",
		"tick_id", tickID,
		"darshan_dates", result.DarshanSlotCount,
		"aarti_dates", result.AartiSlotCount,
		"notified_darshan", result.Notifications.Darshan,
		"notified_aarti", result.Notifications.Aarti)

	return result, nil
}
