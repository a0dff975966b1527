// Package bot implements PromptBinder's conversation: the category menu,
// prompt selection, field-by-field input and the rendered result.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/promptbinder/core/logger"
	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	"github.com/m3rciful/promptbinder/core/telegram/router"
	"github.com/m3rciful/promptbinder/core/telegram/sender"
	"github.com/m3rciful/promptbinder/core/telegram/state"
	"github.com/m3rciful/promptbinder/internal/catalog"
	"github.com/m3rciful/promptbinder/internal/drafts"
	"github.com/m3rciful/promptbinder/internal/usage"

	tele "gopkg.in/telebot.v4"
)

// DefaultMenuDelay separates a rendered prompt from the menu that follows it.
const DefaultMenuDelay = 600 * time.Millisecond

// recvLimit caps the message excerpt stored for every inbound text.
const recvLimit = 120

// Dedup kinds of outbound messages. Field prompts and rendered results
// use the empty kind and are never suppressed.
const (
	kindStart    = "start"
	kindMenu     = "menu"
	kindHelp     = "help"
	kindCancel   = "cancel"
	kindFallback = "fallback"
	kindCopyHint = "copy_hint"
	kindDenied   = "denied"
	kindExport   = "export"
	kindLimited  = "limited"
)

// Options wires the bot's collaborators.
type Options struct {
	Catalog    *catalog.Catalog
	Sessions   state.Store
	Dispatcher *sender.Dispatcher
	// Drafts and Usage are optional.
	Drafts drafts.Store
	Usage  *usage.Log

	// AdminID may run /export_stats; zero disables the command for everyone.
	AdminID int64
	// MenuDelay defaults to DefaultMenuDelay; negative disables the pause.
	MenuDelay time.Duration

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

// Bot holds the conversation handlers.
type Bot struct {
	catalog   *catalog.Catalog
	sessions  state.Store
	send      *sender.Dispatcher
	drafts    drafts.Store
	usage     *usage.Log
	adminID   int64
	menuDelay time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration)
}

// New builds a Bot. Catalog and Dispatcher are required.
func New(opts Options) (*Bot, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("bot: nil catalog")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("bot: nil dispatcher")
	}
	if opts.Sessions == nil {
		opts.Sessions = state.NewMemoryStore()
	}
	switch {
	case opts.MenuDelay == 0:
		opts.MenuDelay = DefaultMenuDelay
	case opts.MenuDelay < 0:
		opts.MenuDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Bot{
		catalog:   opts.Catalog,
		sessions:  opts.Sessions,
		send:      opts.Dispatcher,
		drafts:    opts.Drafts,
		usage:     opts.Usage,
		adminID:   opts.AdminID,
		menuDelay: opts.MenuDelay,
		now:       opts.Now,
		sleep:     opts.Sleep,
	}, nil
}

// Register binds the bot's commands, button aliases, callbacks and text
// handling to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.recv(b.start), Description: "Главное меню"}},
		{"/help", commands.Command{Handler: b.recv(b.help), Description: "Что умеет бот", Aliases: []string{btnHelp}}},
		{"/cancel", commands.Command{Handler: b.recv(b.cancel), Description: "Отменить ввод", Aliases: []string{btnCancel}}},
		{"/back", commands.Command{Handler: b.recv(b.home), Description: "Назад в меню", Hidden: true, Aliases: []string{btnBack}}},
		{"/home", commands.Command{Handler: b.recv(b.home), Description: "Домой", Hidden: true, Aliases: []string{btnHome, btnHomeRU}}},
		{"/export_stats", commands.Command{Handler: b.recv(b.exportStats), Description: "Выгрузить stats.csv", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(copyCallback, b.copyHint); err != nil {
		return err
	}
	reg.SetCallbackNotFound(b.unknownCallback)
	reg.SetTextFallback(b.recv(b.text))
	return nil
}

// RouterOptions returns the routing options matching Register.
func (b *Bot) RouterOptions() router.Options {
	return router.Options{
		AdminID:       b.adminID,
		OnAdminReject: b.recv(b.denied),
	}
}

// Limited answers an update the rate limiter dropped. Callbacks are already
// acknowledged by the limiter and get no message.
func (b *Bot) Limited(ctx context.Context, req commands.Request) error {
	b.stat(ctx, req.ChatID, usage.EventRateLimited, logger.SanitizeLimit(req.Text, recvLimit), "")
	if req.Key != "" {
		return nil
	}
	b.reply(ctx, req.ChatID, kindLimited, msgSlowDown, nil)
	return nil
}

// recv records every inbound text before h runs.
func (b *Bot) recv(h commands.Handler) commands.Handler {
	return func(ctx context.Context, req commands.Request) error {
		b.stat(ctx, req.ChatID, usage.EventRecv, logger.SanitizeLimit(req.Text, recvLimit), "")
		return h(ctx, req)
	}
}

// stat appends a usage row; failures are logged and otherwise ignored.
func (b *Bot) stat(ctx context.Context, chatID int64, event, detail, prompt string) {
	if b.usage == nil {
		return
	}
	if err := b.usage.Record(chatID, event, detail, prompt); err != nil {
		logger.LogEvent(ctx, logger.Usage, slog.LevelWarn, "record",
			slog.String("status", "fail"),
			slog.String("kind", event),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, kind, text string, markup *tele.ReplyMarkup) sender.Outcome {
	return b.send.Send(ctx, chatID, sender.Message{Kind: kind, Text: text, Keyboard: markup})
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
