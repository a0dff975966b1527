package router

import (
	"log/slog"

	"github.com/m3rciful/promptbinder/core/logger"
	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	"github.com/m3rciful/promptbinder/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Options configures how commands are gated and which handlers run as fallbacks.
type Options struct {
	AdminID       int64
	OnAdminReject commands.Handler
}

// CommandRoutes binds every registered command name to its handler.
func CommandRoutes(reg *tg.Registry, opts Options) []tg.Route {
	if reg == nil {
		return nil
	}
	names := reg.CommandNames()
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		key, cmd, _ := reg.LookupCommand(name)
		h := commandHandler(cmd, opts)
		handlerName := normalizeHandlerName(key)
		routes = append(routes, tg.Route{
			Endpoint: key,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, h)
			},
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("count", len(names)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func commandHandler(cmd commands.Command, opts Options) commands.Handler {
	if !cmd.AdminOnly {
		return cmd.Handler
	}
	return middleware.AdminOnly(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}, cmd.Handler)
}
