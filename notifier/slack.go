package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slack-go/slack"
)

// slackClient is the subset of *slack.Client used here, so tests can intercept posts.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts every notification to the organizers' channel.
type SlackNotifier struct {
	api       slackClient
	channelID string
}

var _ Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(token, channelID string) *SlackNotifier {
	return &SlackNotifier{api: slack.New(token), channelID: channelID}
}

func NewSlackNotifierWithAPI(api slackClient, channelID string) *SlackNotifier {
	return &SlackNotifier{api: api, channelID: channelID}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	if s.api == nil || s.channelID == "" {
		return errors.New("slack client or channel ID is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	header := slack.NewTextBlockObject(slack.PlainTextType, n.Subject, false, false)
	body := slack.NewTextBlockObject(slack.MarkdownType, n.Text, false, false)
	footer := slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Division `%s`", n.DivisionID), false, false)

	_, _, err := s.api.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionBlocks(
			slack.NewHeaderBlock(header),
			slack.NewSectionBlock(body, nil, nil),
			slack.NewContextBlock("", footer),
		),
		slack.MsgOptionText(n.Subject, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}
