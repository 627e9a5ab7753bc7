package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts messages to a Slack channel, either through the Web API
// with a bot token or through an incoming webhook.
type SlackNotifier struct {
	client     *slack.Client
	channelID  string
	webhookURL string
}

// NewSlackNotifier creates a notifier that posts to channelID as the bot.
// Additional slack options (such as slack.OptionAPIURL) are passed to the client.
func NewSlackNotifier(botToken, channelID string, opts ...slack.Option) *SlackNotifier {
	if channelID == "" {
		channelID = "#general"
	}
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}
}

// NewSlackWebhookNotifier creates a notifier that posts to an incoming webhook.
func NewSlackWebhookNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

// Notify sends message to Slack.
func (s *SlackNotifier) Notify(ctx context.Context, eventType, message string) error {
	if s.webhookURL != "" {
		if err := slack.PostWebhookContext(ctx, s.webhookURL, &slack.WebhookMessage{Text: message}); err != nil {
			return fmt.Errorf("failed to send slack webhook: %w", err)
		}
		return nil
	}
	if s.client == nil {
		return fmt.Errorf("slack notifier is not configured")
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}
