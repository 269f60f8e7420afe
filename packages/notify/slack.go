package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/abdul-hamid-achik/heartbeat/packages/host"
)

// SlackNotifier sends notifications to Slack via webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	client     *resty.Client
}

// SlackOption is a functional option for SlackNotifier
type SlackOption func(*SlackNotifier)

// WithSlackChannel sets the Slack channel
func WithSlackChannel(channel string) SlackOption {
	return func(s *SlackNotifier) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// WithSlackUsername sets the Slack bot username
func WithSlackUsername(username string) SlackOption {
	return func(s *SlackNotifier) {
		if username != "" {
			s.username = username
		}
	}
}

// WithSlackIconEmoji sets the Slack bot icon emoji
func WithSlackIconEmoji(emoji string) SlackOption {
	return func(s *SlackNotifier) {
		if emoji != "" {
			s.iconEmoji = emoji
		}
	}
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	s := &SlackNotifier{
		webhookURL: webhookURL,
		username:   "heartbeat",
		iconEmoji:  ":heartbeat:",
		client:     newWebhookClient(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the name of the notifier
func (s *SlackNotifier) Name() string {
	return "slack"
}

// slackMessage represents a Slack webhook message
type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// slackAttachment represents a Slack message attachment
type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	TS     int64        `json:"ts,omitempty"`
}

// slackField represents a field in a Slack attachment
type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// headline reports whether summary is healthy and gives its title.
func headline(summary *RunSummary) (ok bool, title string) {
	switch {
	case summary.Failed > 0:
		return false, fmt.Sprintf("%d of %d run(s) failed", summary.Failed, summary.Runs)
	case summary.IsRecovery:
		return true, "Check recovered!"
	}
	return true, "Check passed"
}

// Notify sends a notification to Slack
func (s *SlackNotifier) Notify(summary *RunSummary) error {
	ok, title := headline(summary)
	color, emoji := "good", ":white_check_mark:"
	if !ok {
		color, emoji = "danger", ":x:"
	} else if summary.IsRecovery {
		emoji = ":tada:"
	}

	fields := []slackField{
		{Title: "Runs", Value: fmt.Sprintf("%d", summary.Runs), Short: true},
		{Title: "Passed", Value: fmt.Sprintf("%d", summary.Passed), Short: true},
		{Title: "Failed", Value: fmt.Sprintf("%d", summary.Failed), Short: true},
		{Title: "Duration", Value: summary.Duration.Round(time.Millisecond).String(), Short: true},
	}
	for _, st := range summary.Indicators {
		fields = append(fields, slackField{
			Title: st.Name,
			Value: host.FormatNumber(st.Mean),
			Short: true,
		})
	}

	var text strings.Builder
	if len(summary.Errors) > 0 {
		text.WriteString("*Diagnostics:*\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(&text, "• `%s`\n", e)
		}
	}

	attachment := slackAttachment{
		Color:  color,
		Title:  fmt.Sprintf("%s %s: %s", emoji, title, summary.URL),
		Text:   text.String(),
		Fields: fields,
		Footer: "heartbeat " + summary.RunID,
		TS:     time.Now().Unix(),
	}

	msg := slackMessage{
		Channel:     s.channel,
		Username:    s.username,
		IconEmoji:   s.iconEmoji,
		Attachments: []slackAttachment{attachment},
	}

	return s.send(msg)
}

func (s *SlackNotifier) send(msg slackMessage) error {
	return postJSON(s.client, "slack", s.webhookURL, msg, http.StatusOK)
}
