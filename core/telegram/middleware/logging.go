package middleware

import (
	"log/slog"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/promptbinder/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware builds the request context and logs one sampled debug line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if user := c.Sender(); user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			upd := c.Update()
			switch {
			case upd.Callback != nil:
				key, _ := callbacks.ParseCallback(upd.Callback)
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			case upd.Message != nil:
				attrs = append(attrs, slog.Int("count", len([]rune(c.Text()))))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
