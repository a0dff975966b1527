package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/m3rciful/promptbinder/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ErrStale is returned by Run when no update arrived within StaleAfter.
var ErrStale = errors.New("updates: no updates within stale window")

// AllowedUpdates restricts getUpdates to the kinds the bot handles.
var AllowedUpdates = []string{"message", "callback_query"}

// Source fetches a batch of updates starting at offset.
type Source interface {
	GetUpdates(ctx context.Context, offset int, timeout time.Duration, allowed []string) ([]tele.Update, error)
}

// Options tunes the loop. Zero durations take the defaults noted per field.
type Options struct {
	// Source and Handle default to the bot and its update channel when
	// the loop runs as a tele.Poller.
	Source Source
	Handle func(tele.Update)

	// PollTimeout is the server side long-poll timeout (20s).
	PollTimeout time.Duration
	// Interval is the pause between poll cycles (250ms).
	Interval time.Duration
	// StaleAfter restarts the loop after this much silence (120s).
	StaleAfter time.Duration
	// RetryDelay is the pause before a restart (5s).
	RetryDelay time.Duration
	// ErrorDelay is the pause after a rejected poll (2s).
	ErrorDelay time.Duration

	// SnapshotEvery triggers OnSnapshot every N polls (100).
	SnapshotEvery int
	OnSnapshot    func(ctx context.Context, polls int)

	Now func() time.Time
}

// Loop pulls updates sequentially and hands them to Handle in arrival order.
// The offset only grows; it is advanced before each update is handled, so
// an update is never delivered twice even if its handler panics.
type Loop struct {
	opts     Options
	offset   int
	polls    int
	lastSeen time.Time
}

// New builds a Loop starting from offset 0.
func New(opts Options) *Loop {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 20 * time.Second
	}
	if opts.Interval <= 0 {
		opts.Interval = 250 * time.Millisecond
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 120 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.ErrorDelay <= 0 {
		opts.ErrorDelay = 2 * time.Second
	}
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 100
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loop{opts: opts}
}

// Offset returns the next offset to request.
func (l *Loop) Offset() int {
	return l.offset
}

// Serve runs the loop until ctx is done, restarting after ErrStale and
// transport errors with RetryDelay in between. The offset survives restarts.
func (l *Loop) Serve(ctx context.Context) error {
	logger.Loop.Info("polling started",
		slog.String("event", "start"),
		slog.Int("offset", l.offset),
	)
	for {
		err := l.Run(ctx)
		if ctx.Err() != nil {
			logger.Loop.Info("polling stopped",
				slog.String("event", "stop"),
				slog.Int("offset", l.offset),
			)
			return nil
		}
		level := slog.LevelError
		if errors.Is(err, ErrStale) {
			level = slog.LevelWarn
		}
		logger.LogEvent(ctx, logger.Loop, level, "restart",
			slog.String("status", "retry"),
			slog.Int("offset", l.offset),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if !sleep(ctx, l.opts.RetryDelay) {
			return nil
		}
	}
}

// Run polls until ctx is done, the loop goes stale, or the source fails.
func (l *Loop) Run(ctx context.Context) error {
	l.lastSeen = l.opts.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.PollOnce(ctx); err != nil {
			return err
		}
		if !sleep(ctx, l.opts.Interval) {
			return ctx.Err()
		}
	}
}

// PollOnce performs one poll cycle. Polls the Bot API rejected (*tele.Error)
// are absorbed after ErrorDelay; transport errors and staleness are returned.
func (l *Loop) PollOnce(ctx context.Context) error {
	batch, err := l.opts.Source.GetUpdates(ctx, l.offset, l.opts.PollTimeout, AllowedUpdates)
	l.polls++
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var apiErr *tele.Error
		if !errors.As(err, &apiErr) {
			return fmt.Errorf("updates: poll: %w", err)
		}
		logger.LogEvent(ctx, logger.Loop, slog.LevelWarn, "poll",
			slog.String("status", "fail"),
			slog.Int("http_code", apiErr.Code),
			slog.String("err", logger.SanitizeLimit(apiErr.Error(), 256)),
		)
		sleep(ctx, l.opts.ErrorDelay)
		return nil
	}

	if len(batch) > 0 {
		l.lastSeen = l.opts.Now()
	}
	for _, upd := range batch {
		if upd.ID < l.offset {
			continue
		}
		l.offset = upd.ID + 1
		l.handle(ctx, upd)
	}

	if l.opts.Now().Sub(l.lastSeen) > l.opts.StaleAfter {
		l.snapshot(ctx)
		return ErrStale
	}
	if l.polls >= l.opts.SnapshotEvery {
		l.snapshot(ctx)
	}
	return nil
}

// Poll implements tele.Poller so the loop runs under bot.Start. It serves
// until stop is closed and forwards each update to dest. Without an explicit
// Source it pulls through b.
func (l *Loop) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	ctx, cancel := context.WithCancel(logger.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if l.opts.Source == nil {
		l.opts.Source = &BotSource{Bot: b}
	}
	if l.opts.Handle == nil {
		l.opts.Handle = func(upd tele.Update) {
			select {
			case dest <- upd:
			case <-ctx.Done():
			}
		}
	}
	_ = l.Serve(ctx)
}

func (l *Loop) snapshot(ctx context.Context) {
	polls := l.polls
	l.polls = 0
	if l.opts.OnSnapshot != nil {
		l.opts.OnSnapshot(ctx, polls)
	}
}

// handle runs Handle for one update; a panic is logged and swallowed.
func (l *Loop) handle(ctx context.Context, upd tele.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogEvent(ctx, logger.Loop, slog.LevelError, "handler_panic",
				slog.String("status", "fail"),
				slog.Int("update_id", upd.ID),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	if l.opts.Handle != nil {
		l.opts.Handle(upd)
	}
}

// sleep waits for d or ctx; it reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
