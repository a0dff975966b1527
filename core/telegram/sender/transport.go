package sender

import (
	"context"
	"path/filepath"

	tele "gopkg.in/telebot.v4"
)

// BotTransport sends through a telebot client using HTML parse mode.
type BotTransport struct {
	bot *tele.Bot
}

// NewBotTransport wraps bot.
func NewBotTransport(bot *tele.Bot) *BotTransport {
	return &BotTransport{bot: bot}
}

func (t *BotTransport) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	_, err := t.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: markup,
	})
	return err
}

func (t *BotTransport) SendDocument(_ context.Context, chatID int64, path, caption string) error {
	doc := &tele.Document{
		File:     tele.FromDisk(path),
		FileName: filepath.Base(path),
		Caption:  caption,
	}
	_, err := t.bot.Send(tele.ChatID(chatID), doc)
	return err
}
