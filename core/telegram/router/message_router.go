package router

import (
	"context"
	"strings"
	"time"

	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	tghelpers "github.com/m3rciful/promptbinder/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// TextRoutes routes plain text: command names and aliases first, then the
// registry's text fallback (field capture and menu navigation).
func TextRoutes(reg *tg.Registry, opts Options) []tg.Route {
	handler := func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if key, cmd, ok := reg.LookupCommand(text); ok {
			return handleWithSummary(c, normalizeHandlerName(key), commandHandler(cmd, opts))
		}
		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", fb)
		}
		logHandlerSummary(tghelpers.WithHandler(c, "unknown_text"), "unknown_text", time.Now(), nil)
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}

// Dispatch routes a request outside of telebot, using the same precedence as TextRoutes.
func Dispatch(ctx context.Context, reg *tg.Registry, opts Options, req commands.Request) error {
	if _, cmd, ok := reg.LookupCommand(req.Text); ok {
		return commandHandler(cmd, opts)(ctx, req)
	}
	if fb := reg.TextFallback(); fb != nil {
		return fb(ctx, req)
	}
	return nil
}
