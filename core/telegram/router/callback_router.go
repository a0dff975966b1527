package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/promptbinder/core/logger"
	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/callbacks"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	tghelpers "github.com/m3rciful/promptbinder/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute acknowledges every callback, then routes it through the registry.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		if err := c.Respond(); err != nil {
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "callback.answer",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}

		key, _ := callbacks.ParseCallback(cb)
		extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(key, 128))}
		if h, ok := reg.GetCallback(key); ok {
			return handleWithSummary(c, "callback."+normalizeHandlerName(key), h, extras...)
		}
		if fb := reg.CallbackNotFound(); fb != nil {
			return handleWithSummary(c, "callback.not_found", fb, extras...)
		}
		return nil
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}

// DispatchCallback routes a parsed callback request outside of telebot.
func DispatchCallback(ctx context.Context, reg *tg.Registry, req commands.Request) error {
	if h, ok := reg.GetCallback(req.Key); ok {
		return h(ctx, req)
	}
	if fb := reg.CallbackNotFound(); fb != nil {
		return fb(ctx, req)
	}
	return nil
}
