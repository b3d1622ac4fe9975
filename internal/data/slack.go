package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/model"
)

// SlackNotifier delivers consolidated alerts to a Slack incoming
// webhook as a Block Kit message.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *log.Helper
}

// NewSlackNotifier creates the notifier bound to the configured webhook.
func NewSlackNotifier(c *conf.Alert, d *Data, logger log.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: c.SlackWebhookURL,
		client:     d.webhookClient,
		logger:     log.NewHelper(logger),
	}
}

// Send posts one alert to the webhook. Non-2xx responses are errors so
// the caller can count the failed delivery.
func (n *SlackNotifier) Send(ctx context.Context, alert *model.Alert) error {
	payload := slackPayload{Blocks: renderBlocks(alert)}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver slack alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debugw("msg", "slack alert delivered",
		"blocks", len(payload.Blocks),
		"total_unhealthy", alert.TotalUnhealthy,
	)
	return nil
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string        `json:"type"`
	Text     *slackText    `json:"text,omitempty"`
	Elements []interface{} `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackButton struct {
	Type     string     `json:"type"`
	Text     *slackText `json:"text"`
	ActionID string     `json:"action_id"`
	Value    string     `json:"value"`
}

// slackContextText is a bare mrkdwn element inside a context block; its
// text is a plain string, unlike section text objects.
type slackContextText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(text string) *slackText {
	return &slackText{Type: "mrkdwn", Text: text}
}

// renderBlocks lays out the alert: header, then per service type a
// divider, a group label, and one section per entry; circuit-open
// entries get a reset button; a context footer closes the message.
func renderBlocks(alert *model.Alert) []slackBlock {
	blocks := []slackBlock{
		{
			Type: "section",
			Text: mrkdwn(fmt.Sprintf("🚨 *Service Health Alert* - Environment: %s", alert.Environment)),
		},
	}

	for _, group := range alert.Groups {
		blocks = append(blocks,
			slackBlock{Type: "divider"},
			slackBlock{
				Type: "section",
				Text: mrkdwn(fmt.Sprintf("*%s Services*", titleCase(string(group.Type)))),
			},
		)
		for _, entry := range group.Entries {
			blocks = append(blocks, slackBlock{
				Type: "section",
				Text: mrkdwn(renderEntry(entry)),
			})
			if entry.CanReset {
				blocks = append(blocks, slackBlock{
					Type: "actions",
					Elements: []interface{}{
						slackButton{
							Type:     "button",
							Text:     &slackText{Type: "plain_text", Text: "Reset Circuit"},
							ActionID: "reset_circuit",
							Value:    entry.Name,
						},
					},
				})
			}
		}
	}

	blocks = append(blocks, slackBlock{
		Type: "context",
		Elements: []interface{}{
			slackContextText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Total unhealthy: %d | Environment: %s | Sent: %s",
					alert.TotalUnhealthy, alert.Environment, alert.SentAt.Format(time.RFC3339)),
			},
		},
	})

	return blocks
}

func renderEntry(entry model.AlertEntry) string {
	statusCode := "N/A"
	if entry.StatusCode != nil {
		statusCode = fmt.Sprintf("%d", *entry.StatusCode)
	}
	responseTime := "N/A"
	if entry.ResponseTime != nil {
		responseTime = fmt.Sprintf("%.2fs", *entry.ResponseTime)
	}
	errMsg := entry.Error
	if errMsg == "" {
		errMsg = "N/A"
	}

	lines := []string{
		fmt.Sprintf("*%s* (%s)", entry.Name, entry.Type),
		fmt.Sprintf("Status: %s", entry.Status),
		fmt.Sprintf("Status Code: %s (expected %d)", statusCode, entry.ExpectedStatus),
		fmt.Sprintf("Response Time: %s", responseTime),
		fmt.Sprintf("Failure Rate: %.1f%%", entry.FailureRate*100),
		fmt.Sprintf("Error: %s", errMsg),
		fmt.Sprintf("Time: %s", entry.Timestamp.Format(time.RFC3339)),
	}
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
