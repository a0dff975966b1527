package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/promptbinder/core/config"
	"github.com/m3rciful/promptbinder/core/telegram/updates"

	tele "gopkg.in/telebot.v4"
)

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	Polling                coreconfig.PollingConfig

	OnSnapshot func(ctx context.Context, polls int)
}

// BuildPoller returns the poller bot.Start drives: a telebot webhook, or the
// sequential updates loop in long-poll mode.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			AllowedUpdates: updates.AllowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}
	return updates.New(updates.Options{
		PollTimeout:   pollTimeout(opts.LongPollTimeoutSeconds),
		Interval:      time.Duration(opts.Polling.IntervalMS) * time.Millisecond,
		StaleAfter:    time.Duration(opts.Polling.StaleAfterSeconds) * time.Second,
		RetryDelay:    time.Duration(opts.Polling.RetryDelaySeconds) * time.Second,
		SnapshotEvery: opts.Polling.SnapshotEvery,
		OnSnapshot:    opts.OnSnapshot,
	})
}

func pollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = 20
	}
	return time.Duration(seconds) * time.Second
}
