// Package app assembles PromptBinder from configuration: catalog, usage
// log, draft store, outbound dispatcher and the conversation handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/promptbinder/core/bootstrap"
	corecmd "github.com/m3rciful/promptbinder/core/cmd"
	coreconfig "github.com/m3rciful/promptbinder/core/config"
	"github.com/m3rciful/promptbinder/core/logger"
	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/router"
	"github.com/m3rciful/promptbinder/core/telegram/sender"
	"github.com/m3rciful/promptbinder/core/telegram/state"
	"github.com/m3rciful/promptbinder/internal/bot"
	"github.com/m3rciful/promptbinder/internal/catalog"
	"github.com/m3rciful/promptbinder/internal/drafts"
	"github.com/m3rciful/promptbinder/internal/usage"
)

// App is a fully wired bot ready to be handed to the Telegram runtime.
type App struct {
	cfg         *coreconfig.Config
	catalog     *catalog.Catalog
	usage       *usage.Log
	drafts      drafts.Store
	dispatcher  *sender.Dispatcher
	registry    *tg.Registry
	bot         *bot.Bot
	summaryPath string
}

// Bootstrap runs the infrastructure pipeline and builds the App.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:        cfg,
		Migrations:    drafts.Migrations,
		MigrationsDir: drafts.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, res.DB)
	if err != nil {
		if res.DB != nil {
			_ = res.DB.Close()
		}
		return nil, err
	}
	return a, nil
}

// New builds the App. db selects the Postgres draft backend when non-nil.
func New(ctx context.Context, cfg *coreconfig.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	if err := os.MkdirAll(cfg.Bot.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("app: create data dir: %w", err)
	}

	cat, _ := catalog.Load(cfg.Bot.Path(cfg.Bot.TemplatesFile))

	stats := usage.New(cfg.Bot.Path(cfg.Bot.StatsFile), usage.Options{})
	if err := stats.EnsureHeader(); err != nil {
		logger.LogEvent(ctx, logger.Usage, slog.LevelWarn, "init",
			slog.String("status", "fail"),
			slog.String("path", stats.Path()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}

	store := openDrafts(ctx, cfg, db)

	dispatcher := sender.NewDispatcher(sender.Options{
		Audit:  stats,
		Window: time.Duration(cfg.Bot.DedupWindowMS) * time.Millisecond,
	})

	b, err := bot.New(bot.Options{
		Catalog:    cat,
		Sessions:   state.NewMemoryStore(),
		Dispatcher: dispatcher,
		Drafts:     store,
		Usage:      stats,
		AdminID:    cfg.Telegram.AdminID,
		MenuDelay:  time.Duration(cfg.Bot.MenuDelayMS) * time.Millisecond,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	return &App{
		cfg:         cfg,
		catalog:     cat,
		usage:       stats,
		drafts:      store,
		dispatcher:  dispatcher,
		registry:    reg,
		bot:         b,
		summaryPath: cfg.Bot.Path(cfg.Bot.SummaryFile),
	}, nil
}

// openDrafts picks the draft backend and reads what a previous run left.
// Unreadable drafts are logged and the bot starts with an empty set.
func openDrafts(ctx context.Context, cfg *coreconfig.Config, db *sqlx.DB) drafts.Store {
	var store drafts.Store
	backend := coreconfig.DraftsBackendFile
	if db != nil {
		store = drafts.NewPostgresStore(db)
		backend = coreconfig.DraftsBackendPostgres
	} else {
		store = drafts.NewFileStore(cfg.Bot.Path(cfg.Bot.DraftsFile))
	}

	existing, err := store.Load(ctx)
	if err != nil {
		status := "fail"
		if errors.Is(err, drafts.ErrCorrupt) {
			status = "skip"
		}
		logger.LogEvent(ctx, logger.Drafts, slog.LevelWarn, "load",
			slog.String("status", status),
			slog.String("mode", backend),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	logger.LogEvent(ctx, logger.Drafts, slog.LevelInfo, "load",
		slog.String("status", "ok"),
		slog.String("mode", backend),
		slog.Int("count", len(existing)),
	)
	return store
}

// Config returns the configuration the App was built from.
func (a *App) Config() *coreconfig.Config {
	return a.cfg
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry {
	return a.registry
}

// TelegramRunOptions satisfies the runner's TelegramApp contract.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		Middlewares: tg.DefaultMiddlewares(a.cfg, router.Handler("rate_limited", a.bot.Limited)),
		Routes:      a.routes,
		OnSnapshot:  usage.SnapshotFunc(a.summaryPath, a.usage),
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			logger.Component("app").LogAttrs(ctx, slog.LevelInfo, "dispatcher totals",
				slog.String("event", "send_totals"),
				slog.Uint64("count", a.dispatcher.FailureCount()),
			)
			if err := a.drafts.Close(); err != nil {
				logger.LogEvent(ctx, logger.Drafts, slog.LevelWarn, "close",
					slog.String("status", "fail"),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
			}
			return nil
		},
	}, nil
}

func (a *App) routes(reg *tg.Registry) []tg.Route {
	opts := a.bot.RouterOptions()
	routes := router.CommandRoutes(reg, opts)
	routes = append(routes, router.TextRoutes(reg, opts)...)
	return append(routes, router.CallbackRoute(reg))
}
