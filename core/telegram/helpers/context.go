package helpers

import (
	"context"
	"strings"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/core/telegram/callbacks"
	"github.com/m3rciful/promptbinder/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// StoreContext attaches ctx to the telebot context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok
}

// BuildContext returns a context carrying rid and update/user/chat identifiers.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	upd := c.Update()
	chatID, userID := ids(c)
	ctx := logger.WithRID(context.Background(), logger.BuildRID(upd.ID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records the handler name in the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// RequestFrom converts a telebot context into a commands.Request.
func RequestFrom(c tele.Context) commands.Request {
	chatID, userID := ids(c)
	req := commands.Request{
		UpdateID: c.Update().ID,
		ChatID:   chatID,
		UserID:   userID,
	}
	if sender := c.Sender(); sender != nil {
		req.LangCode = sender.LanguageCode
	}
	if cb := c.Callback(); cb != nil {
		req.Key, req.Data = callbacks.ParseCallback(cb)
		return req
	}
	req.Text = strings.TrimSpace(c.Text())
	return req
}

func ids(c tele.Context) (chatID, userID int64) {
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return chatID, userID
}
