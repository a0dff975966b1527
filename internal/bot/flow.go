package bot

import (
	"context"
	"log/slog"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/core/telegram/sender"
	"github.com/m3rciful/promptbinder/core/telegram/state"
	"github.com/m3rciful/promptbinder/internal/catalog"
	"github.com/m3rciful/promptbinder/internal/drafts"
	"github.com/m3rciful/promptbinder/internal/usage"
)

// fieldDetailLimit caps the answer excerpt stored with a field event.
const fieldDetailLimit = 60

func (b *Bot) openCategory(ctx context.Context, chatID int64, c catalog.Category) error {
	b.stat(ctx, chatID, usage.EventOpenCategory, c.ID, "")
	title := catalog.PrefixIcon(c.Title, c.Icon)
	text := categoryText(title)
	if c.Placeholder {
		text = emptyCategoryText(title)
	}
	b.reply(ctx, chatID, "category:"+c.ID, text, itemsKeyboard(b.catalog, c))
	return nil
}

func (b *Bot) startPrompt(ctx context.Context, chatID int64, p catalog.Prompt) error {
	b.stat(ctx, chatID, usage.EventStartPrompt, "", p.Key)
	if len(p.Fields) == 0 {
		out := catalog.Render(p.Template, nil)
		b.stat(ctx, chatID, usage.EventPromptGenerated, "", p.Key)
		b.send.Send(ctx, chatID, sender.Message{Text: readyText(out), RemoveKeyboard: true})
		return nil
	}

	s, err := state.Begin(ctx, p.Key, p.Fields)
	if err != nil {
		return err
	}
	b.sessions.Put(chatID, s)
	logger.Debug(ctx, "bot", "flow.begin",
		slog.String("prompt", p.Key),
		slog.String("flow_id", s.FlowID.String()),
		slog.Int("fields", len(p.Fields)),
	)
	b.askField(ctx, chatID, p, p.Fields[0])
	return nil
}

// capture stores text as the answer to the session's current field, then
// asks the next field or renders the result.
func (b *Bot) capture(ctx context.Context, chatID int64, s *state.Session, text string) error {
	p, ok := b.catalog.Prompt(s.PromptKey)
	if !ok {
		b.endFlow(chatID)
		b.reply(ctx, chatID, kindMenu, msgPromptMissing, categoryKeyboard(b.catalog))
		return nil
	}

	field, done, err := s.Capture(ctx, text)
	if err != nil {
		b.endFlow(chatID)
		return err
	}
	b.saveDraft(ctx, chatID, s)
	b.stat(ctx, chatID, usage.EventField, field+"="+logger.SanitizeLimit(text, fieldDetailLimit), p.Key)

	if !done {
		b.sessions.Put(chatID, s)
		next, _ := s.Field()
		b.askField(ctx, chatID, p, next)
		return nil
	}
	b.finish(ctx, chatID, p, s)
	return nil
}

func (b *Bot) askField(ctx context.Context, chatID int64, p catalog.Prompt, field string) {
	b.reply(ctx, chatID, "", fieldText(field, p.Example(field)), cancelKeyboard())
}

// finish sends the rendered template and, after the menu delay, the menu.
func (b *Bot) finish(ctx context.Context, chatID int64, p catalog.Prompt, s *state.Session) {
	out := catalog.Render(p.Template, s.ValueMap())
	b.endFlow(chatID)
	b.stat(ctx, chatID, usage.EventPromptGenerated, "", p.Key)
	logger.Info(ctx, "bot", "flow.complete",
		slog.String("prompt", p.Key),
		slog.String("flow_id", s.FlowID.String()),
		slog.Int("fields", len(s.Values)),
	)
	b.reply(ctx, chatID, "", resultText(out), copyKeyboard())

	b.sleep(ctx, b.menuDelay)
	if ctx.Err() != nil {
		return
	}
	b.menu(ctx, chatID)
}

func (b *Bot) endFlow(chatID int64) {
	b.sessions.Delete(chatID)
}

// saveDraft mirrors the session to the draft store. Failures are logged
// and never reach the conversation.
func (b *Bot) saveDraft(ctx context.Context, chatID int64, s *state.Session) {
	if b.drafts == nil {
		return
	}
	if err := b.drafts.Save(ctx, drafts.FromSession(chatID, s, b.now())); err != nil {
		logger.LogEvent(ctx, logger.Drafts, slog.LevelWarn, "save",
			slog.String("status", "fail"),
			slog.String("prompt", s.PromptKey),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
