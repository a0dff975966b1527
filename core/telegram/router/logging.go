package router

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	tghelpers "github.com/m3rciful/promptbinder/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Handler adapts a transport-free handler to telebot, logging one summary
// line under handlerName.
func Handler(handlerName string, h commands.Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, h)
	}
}

// handleWithSummary runs h for the update in c and logs one summary line.
func handleWithSummary(c tele.Context, handlerName string, h commands.Handler, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, handlerName)
	err := h(ctx, tghelpers.RequestFrom(c))
	logHandlerSummary(ctx, handlerName, start, err, extras...)
	return err
}

func logHandlerSummary(ctx context.Context, handlerName string, start time.Time, err error, extras ...slog.Attr) {
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("handler", handlerName),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
