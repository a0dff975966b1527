package bot

import (
	"context"
	"path/filepath"

	"github.com/m3rciful/promptbinder/core/telegram/commands"
	"github.com/m3rciful/promptbinder/internal/usage"
)

// Export details written to the usage log.
const (
	exportSent    = "sent"
	exportMissing = "missing"
	exportDenied  = "denied"
)

func (b *Bot) start(ctx context.Context, req commands.Request) error {
	b.endFlow(req.ChatID)
	b.stat(ctx, req.ChatID, usage.EventStart, "", "")
	b.reply(ctx, req.ChatID, kindStart, msgWelcome, categoryKeyboard(b.catalog))
	return nil
}

func (b *Bot) help(ctx context.Context, req commands.Request) error {
	b.endFlow(req.ChatID)
	b.stat(ctx, req.ChatID, usage.EventHelp, "", "")
	b.reply(ctx, req.ChatID, kindHelp, msgHelp, categoryKeyboard(b.catalog))
	return nil
}

// home serves both the home and back buttons.
func (b *Bot) home(ctx context.Context, req commands.Request) error {
	b.endFlow(req.ChatID)
	b.menu(ctx, req.ChatID)
	return nil
}

func (b *Bot) cancel(ctx context.Context, req commands.Request) error {
	b.endFlow(req.ChatID)
	b.send.Forget(req.ChatID)
	b.stat(ctx, req.ChatID, usage.EventCancel, "", "")
	b.reply(ctx, req.ChatID, kindCancel, msgCancelled, categoryKeyboard(b.catalog))
	return nil
}

// exportStats sends the usage log to the admin. The active flow, if any,
// is left untouched.
func (b *Bot) exportStats(ctx context.Context, req commands.Request) error {
	if b.usage == nil || !b.usage.Exists() {
		b.stat(ctx, req.ChatID, usage.EventExport, exportMissing, "")
		b.reply(ctx, req.ChatID, kindExport, msgNoStats, nil)
		return nil
	}
	b.stat(ctx, req.ChatID, usage.EventExport, exportSent, "")
	path := b.usage.Path()
	b.send.SendDocument(ctx, req.ChatID, path, filepath.Base(path))
	return nil
}

func (b *Bot) denied(ctx context.Context, req commands.Request) error {
	b.stat(ctx, req.ChatID, usage.EventExport, exportDenied, "")
	b.reply(ctx, req.ChatID, kindDenied, msgDenied, nil)
	return nil
}

func (b *Bot) copyHint(ctx context.Context, req commands.Request) error {
	b.stat(ctx, req.ChatID, usage.EventCopy, "", "")
	b.reply(ctx, req.ChatID, kindCopyHint, msgCopyHint, nil)
	return nil
}

// unknownCallback answers buttons of older messages with the menu.
func (b *Bot) unknownCallback(ctx context.Context, req commands.Request) error {
	b.menu(ctx, req.ChatID)
	return nil
}

// text handles everything that is not a command: field answers first, then
// category and prompt selection, then the numeric shortcut.
func (b *Bot) text(ctx context.Context, req commands.Request) error {
	if s, ok := b.sessions.Get(req.ChatID); ok {
		if _, filling := s.Field(); filling {
			return b.capture(ctx, req.ChatID, s, req.Text)
		}
	}
	if c, ok := b.catalog.MatchCategory(req.Text); ok {
		return b.openCategory(ctx, req.ChatID, c)
	}
	if p, ok := b.catalog.MatchPrompt(req.Text); ok {
		return b.startPrompt(ctx, req.ChatID, p)
	}
	if c, ok := b.catalog.MatchIndex(req.Text); ok {
		return b.openCategory(ctx, req.ChatID, c)
	}
	b.reply(ctx, req.ChatID, kindFallback, fallbackHint(req.Text, req.LangCode), categoryKeyboard(b.catalog))
	return nil
}

func (b *Bot) menu(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, kindMenu, msgMenu, categoryKeyboard(b.catalog))
}
