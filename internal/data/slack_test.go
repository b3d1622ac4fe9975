package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/model"
)

func newTestNotifier(webhookURL string) *SlackNotifier {
	logger := log.NewStdLogger(os.Stdout)
	d, _, err := NewData(logger)
	if err != nil {
		panic(err)
	}
	return NewSlackNotifier(&conf.Alert{
		SlackWebhookURL: webhookURL,
		Environment:     "production",
	}, d, logger)
}

func sampleAlert() *model.Alert {
	code := 503
	rt := 0.42
	return &model.Alert{
		Environment: "production",
		Groups: []model.AlertGroup{
			{
				Type: model.ServiceTypeBackend,
				Entries: []model.AlertEntry{
					{
						Name:           "user-api",
						Type:           model.ServiceTypeBackend,
						Status:         model.StatusUnhealthy,
						StatusCode:     &code,
						ExpectedStatus: 200,
						ResponseTime:   &rt,
						FailureRate:    0.25,
						Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
					},
				},
			},
			{
				Type: model.ServiceTypeFrontend,
				Entries: []model.AlertEntry{
					{
						Name:           "web",
						Type:           model.ServiceTypeFrontend,
						Status:         model.StatusCircuitOpen,
						ExpectedStatus: 200,
						FailureRate:    1.0,
						Error:          "circuit breaker open",
						Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
						CanReset:       true,
					},
				},
			},
		},
		TotalUnhealthy: 2,
		SentAt:         time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC),
	}
}

func TestSlackNotifier_Send(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).Send(context.Background(), sampleAlert())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)

	var payload struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.NotEmpty(t, payload.Blocks)

	body := string(gotBody)
	assert.Contains(t, body, "🚨 *Service Health Alert* - Environment: production")
	assert.Contains(t, body, "Total unhealthy: 2 | Environment: production | Sent: 2025-06-01T12:00:01Z")
}

func TestSlackNotifier_SendNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer server.Close()

	err := newTestNotifier(server.URL).Send(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack webhook returned status 400")
}

func TestSlackNotifier_SendTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := newTestNotifier(url).Send(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deliver slack alert")
}

func TestRenderBlocks_Layout(t *testing.T) {
	blocks := renderBlocks(sampleAlert())

	// Header, then per group divider + label + entries (one actions block
	// for the circuit-open entry), then the context footer.
	types := make([]string, 0, len(blocks))
	for _, b := range blocks {
		types = append(types, b.Type)
	}
	assert.Equal(t, []string{
		"section",
		"divider", "section", "section",
		"divider", "section", "section", "actions",
		"context",
	}, types)

	assert.Equal(t, "🚨 *Service Health Alert* - Environment: production", blocks[0].Text.Text)
	assert.Equal(t, "*Backend Services*", blocks[2].Text.Text)
	assert.Equal(t, "*Frontend Services*", blocks[5].Text.Text)
}

func TestRenderBlocks_EntryText(t *testing.T) {
	blocks := renderBlocks(sampleAlert())

	entry := blocks[3].Text.Text
	lines := strings.Split(entry, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "*user-api* (backend)", lines[0])
	assert.Equal(t, "Status: unhealthy", lines[1])
	assert.Equal(t, "Status Code: 503 (expected 200)", lines[2])
	assert.Equal(t, "Response Time: 0.42s", lines[3])
	assert.Equal(t, "Failure Rate: 25.0%", lines[4])
	assert.Equal(t, "Error: N/A", lines[5])
	assert.Equal(t, "Time: 2025-06-01T12:00:00Z", lines[6])
}

func TestRenderBlocks_CircuitOpenEntry(t *testing.T) {
	blocks := renderBlocks(sampleAlert())

	entry := blocks[6].Text.Text
	assert.Contains(t, entry, "*web* (frontend)")
	assert.Contains(t, entry, "Status: circuit_open")
	assert.Contains(t, entry, "Status Code: N/A (expected 200)")
	assert.Contains(t, entry, "Response Time: N/A")
	assert.Contains(t, entry, "Failure Rate: 100.0%")
	assert.Contains(t, entry, "Error: circuit breaker open")

	actions := blocks[7]
	require.Len(t, actions.Elements, 1)
	button, ok := actions.Elements[0].(slackButton)
	require.True(t, ok)
	assert.Equal(t, "button", button.Type)
	assert.Equal(t, "Reset Circuit", button.Text.Text)
	assert.Equal(t, "reset_circuit", button.ActionID)
	assert.Equal(t, "web", button.Value)
}

func TestRenderBlocks_SingleGroup(t *testing.T) {
	code := 500
	alert := &model.Alert{
		Environment: "staging",
		Groups: []model.AlertGroup{
			{
				Type: model.ServiceTypeBackend,
				Entries: []model.AlertEntry{
					{
						Name:           "order-api",
						Type:           model.ServiceTypeBackend,
						Status:         model.StatusUnhealthy,
						StatusCode:     &code,
						ExpectedStatus: 200,
						Timestamp:      time.Now().UTC(),
					},
				},
			},
		},
		TotalUnhealthy: 1,
		SentAt:         time.Now().UTC(),
	}

	blocks := renderBlocks(alert)
	require.Len(t, blocks, 5)
	assert.Equal(t, "divider", blocks[1].Type)
	assert.Equal(t, "context", blocks[4].Type)
}
