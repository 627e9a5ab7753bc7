package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bootbench/internal/benchmark"

	"github.com/spf13/viper"
)

// Manager filters events by configuration and forwards enabled ones to Slack.
// Delivery failures are logged, never returned to the caller.
type Manager struct {
	slack  Notifier
	logger *slog.Logger
}

// NewManager reads notifications.slack.* from viper. Slack is used when it is
// enabled and either SLACK_WEBHOOK_URL or SLACK_BOT_USER_TOKEN is set.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}

	if !viper.GetBool("notifications.slack.enabled") {
		return m
	}

	if webhook := os.Getenv("SLACK_WEBHOOK_URL"); webhook != "" {
		m.slack = NewSlackWebhookNotifier(webhook)
		return m
	}
	botToken := os.Getenv("SLACK_BOT_USER_TOKEN")
	if botToken == "" {
		logger.Warn("SLACK_BOT_USER_TOKEN not set, slack notifications disabled")
		return m
	}
	m.slack = NewSlackNotifier(botToken, viper.GetString("notifications.slack.channel"))
	return m
}

// NewManagerWith uses n for every enabled event.
func NewManagerWith(n Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{slack: n, logger: logger}
}

// Enabled reports whether any provider is configured.
func (m *Manager) Enabled() bool {
	return m.slack != nil
}

// Notify sends message if eventType is enabled. Events default to enabled;
// notifications.slack.events.<event>=false turns one off. Delivery errors
// are logged and never returned, so the result is always nil.
func (m *Manager) Notify(ctx context.Context, eventType, message string) error {
	if m.slack == nil || !m.isEnabled(eventType) {
		return nil
	}
	m.logger.Debug("sending notification", "event", eventType)
	if err := m.slack.Notify(ctx, eventType, message); err != nil {
		m.logger.Error("failed to send slack notification", "event", eventType, "error", err)
	}
	return nil
}

func (m *Manager) isEnabled(eventType string) bool {
	key := "notifications.slack.events." + eventType
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}

// FormatRun renders the summary of a completed run, with regressions flagged
// against threshold when comparisons are given.
func FormatRun(run *benchmark.Run, comparisons []benchmark.Comparison, threshold float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Boot benchmark on %s finished (%d rounds)\n", run.Device, run.Rounds)
	for _, c := range benchmark.Conditions {
		s, ok := run.Summaries[c]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "• %s: avg %.2fs, min %.2fs, max %.2fs, stdev %.2fs\n", c, s.Average, s.Min, s.Max, s.StdDev)
	}
	for _, c := range comparisons {
		mark := ""
		if c.Regressed(threshold) {
			mark = " :red_circle: regression"
		}
		fmt.Fprintf(&b, "• %s vs previous: %+.2f%%%s\n", c.Condition, c.AverageDiff, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatFailure renders a failed run.
func FormatFailure(serial string, err error) string {
	return fmt.Sprintf("Boot benchmark on %s failed: %v", serial, err)
}
