package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bootbench/internal/benchmark"
	"bootbench/internal/stats"
	"bootbench/internal/telemetry"

	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSlackNotifier_Notify(t *testing.T) {
	var gotChannel, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		gotChannel = r.FormValue("channel")
		gotText = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "channel": "C123", "ts": "1700000000.000100"}`))
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-fake", "C123", slack.OptionAPIURL(server.URL+"/"))
	err := n.Notify(context.Background(), EventSuccess, "Boot benchmark finished")
	require.NoError(t, err)

	assert.Equal(t, "C123", gotChannel)
	assert.Equal(t, "Boot benchmark finished", gotText)
}

func TestSlackNotifier_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-fake", "", slack.OptionAPIURL(server.URL+"/"))
	err := n.Notify(context.Background(), EventFailure, "test")
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestSlackWebhookNotifier(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackWebhookNotifier(server.URL)
	require.NoError(t, n.Notify(context.Background(), EventSuccess, "hello"))
	assert.Equal(t, "hello", payload["text"])
}

func TestSlackWebhookNotifier_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewSlackWebhookNotifier(server.URL).Notify(context.Background(), EventSuccess, "hello")
	assert.Error(t, err)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, eventType, message string) error {
	return m.Called(ctx, eventType, message).Error(0)
}

func TestManager_EventFiltering(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("notifications.slack.events.on_success", false)

	n := new(MockNotifier)
	n.On("Notify", mock.Anything, EventFailure, "boom").Return(errors.New("slack down"))

	m := NewManagerWith(n, telemetry.DiscardLogger())
	assert.True(t, m.Enabled())

	assert.NoError(t, m.Notify(context.Background(), EventSuccess, "ok"))
	assert.NoError(t, m.Notify(context.Background(), EventFailure, "boom"), "delivery errors are logged only")

	n.AssertExpectations(t)
	n.AssertNotCalled(t, "Notify", mock.Anything, EventSuccess, mock.Anything)
}

func TestNewManager_FromConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	m := NewManager(telemetry.DiscardLogger())
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Notify(context.Background(), EventSuccess, "ignored"))

	viper.Set("notifications.slack.enabled", true)
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("SLACK_BOT_USER_TOKEN", "")
	assert.False(t, NewManager(telemetry.DiscardLogger()).Enabled())

	t.Setenv("SLACK_BOT_USER_TOKEN", "xoxb-fake")
	assert.True(t, NewManager(telemetry.DiscardLogger()).Enabled())

	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/X")
	m = NewManager(telemetry.DiscardLogger())
	require.True(t, m.Enabled())
	assert.IsType(t, &SlackNotifier{}, m.slack)
	assert.NotEmpty(t, m.slack.(*SlackNotifier).webhookURL)
}

func TestFormatRun(t *testing.T) {
	run := &benchmark.Run{
		Device: "emulator-5554",
		Rounds: 5,
		Summaries: map[benchmark.Condition]stats.Summary{
			benchmark.CompOS:   {Average: 44, Min: 40, Max: 48, StdDev: 3.16},
			benchmark.Baseline: {Average: 30, Min: 30, Max: 30},
		},
	}
	comps := []benchmark.Comparison{{Condition: benchmark.CompOS, AverageDiff: 12.5}}

	msg := FormatRun(run, comps, 10)
	assert.Contains(t, msg, "emulator-5554 finished (5 rounds)")
	assert.Contains(t, msg, "with_compos: avg 44.00s, min 40.00s, max 48.00s, stdev 3.16s")
	assert.Contains(t, msg, "without_compos: avg 30.00s")
	assert.Contains(t, msg, "+12.50% :red_circle: regression")

	assert.Equal(t, "Boot benchmark on d1 failed: boom", FormatFailure("d1", errors.New("boom")))
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), EventSuccess, "x"))
}
