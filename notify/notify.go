// Package notify renders availability changes and delivers them to a
// Slack-compatible webhook.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"darshan-notifier/pkg/booking"
)

const maxSlotsPerDate = 3 // Safety limit: max individual slots listed per date in a message

// Provider defines the interface for message delivery implementations.
type Provider interface {
	// Send delivers one plain-text message.
	Send(ctx context.Context, text string) error
}

// Sender formats and delivers change notifications. Delivery failure is
// logged and reported as a false return, never as an error: a broken webhook
// must not abort a poll tick.
type Sender struct {
	provider     Provider // nil when no webhook is configured
	logger       *slog.Logger
	dashboardURL string // linked in message footers
}

// New creates a new notification sender. A nil provider disables delivery.
func New(provider Provider, logger *slog.Logger, dashboardURL string) *Sender {
	return &Sender{
		provider:     provider,
		logger:       logger,
		dashboardURL: dashboardURL,
	}
}

// NotifyChanges delivers a change summary for one kind. Returns whether the
// message was delivered.
func (s *Sender) NotifyChanges(ctx context.Context, report booking.ChangeReport) bool {
	if len(report.Changed) == 0 {
		return false
	}
	return s.deliver(ctx, s.formatChangeMessage(report))
}

// NotifyTest delivers the fixed-format health message used by test-mode
// ticks, independent of whether anything changed.
func (s *Sender) NotifyTest(ctx context.Context, darshanCount, aartiCount int) bool {
	text := fmt.Sprintf("✅ Slot monitor test: %d darshan and %d aarti dates currently have availability.",
		darshanCount, aartiCount)
	if s.dashboardURL != "" {
		text += "\nDashboard: " + s.dashboardURL
	}
	return s.deliver(ctx, text)
}

func (s *Sender) deliver(ctx context.Context, text string) bool {
	if s.provider == nil {
		s.logger.Warn("Webhook URL not configured, skipping notification", "text_length", len(text))
		return false
	}

	if err := s.provider.Send(ctx, text); err != nil {
		s.logger.Error("Notification delivery failed", "error", err)
		return false
	}

	s.logger.Info("Notification delivered", "text_length", len(text))
	return true
}

// formatChangeMessage renders a ChangeReport as the webhook text block:
// a header naming the kind, a dated bullet per change with up to
// maxSlotsPerDate time ranges, and a dashboard footer.
func (s *Sender) formatChangeMessage(report booking.ChangeReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🔔 *New %s availability detected!*\n\n", report.Kind)

	for _, slot := range report.Changed {
		fmt.Fprintf(&b, "📅 *%s*\n", slot.FormattedDate)
		fmt.Fprintf(&b, "   - %d slots available\n", len(slot.Slots))

		shown := slot.Slots
		if len(shown) > maxSlotsPerDate {
			shown = shown[:maxSlotsPerDate]
		}
		for _, detail := range shown {
			fmt.Fprintf(&b, "   - %s: %s\n", detail.Name, detail.TimeRange())
		}
		if remainder := len(slot.Slots) - maxSlotsPerDate; remainder > 0 {
			fmt.Fprintf(&b, "   - ... and %d more slots\n", remainder)
		}
		b.WriteString("\n")
	}

	if s.dashboardURL != "" {
		fmt.Fprintf(&b, "Check the dashboard for more details: %s", s.dashboardURL)
	}

	return b.String()
}
