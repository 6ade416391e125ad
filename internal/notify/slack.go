// Package notify posts processed changelog summaries to chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/mattjoyce/scribe-gw/internal/commits"
)

// Slack posts to an incoming-webhook URL.
type Slack struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL, post: slack.PostWebhookContext}
}

// NotifyChangelog sends one message listing every summary. Empty outcomes
// are not posted.
func (s *Slack) NotifyChangelog(ctx context.Context, out commits.Outcome) error {
	if len(out.Summaries) == 0 {
		return nil
	}
	msg := &slack.WebhookMessage{Text: FormatChangelog(out)}
	if err := s.post(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

// FormatChangelog renders an outcome as Slack mrkdwn.
func FormatChangelog(out commits.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Changelog for %s*", out.Repository)
	for _, s := range out.Summaries {
		fmt.Fprintf(&b, "\n• `%s` %s", shortSHA(s.Commit), s.Summary)
	}
	return b.String()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
