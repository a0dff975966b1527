package telegram

import (
	"testing"
	"time"

	"github.com/m3rciful/promptbinder/core/telegram/updates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.org/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://bot.example.org/hook", wh.Endpoint.PublicURL)
	assert.Equal(t, []string{"message", "callback_query"}, wh.AllowedUpdates)
}

func TestBuildPollerLongpollUsesUpdatesLoop(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	loop, ok := p.(*updates.Loop)
	require.True(t, ok)
	assert.Equal(t, 0, loop.Offset())
}

func TestPollTimeoutDefault(t *testing.T) {
	assert.Equal(t, 20*time.Second, pollTimeout(0))
	assert.Equal(t, 5*time.Second, pollTimeout(5))
}

func TestBuildHTTPClientOutlivesPoll(t *testing.T) {
	c := BuildHTTPClient(20 * time.Second)
	assert.Equal(t, 30*time.Second, c.Timeout)
}
