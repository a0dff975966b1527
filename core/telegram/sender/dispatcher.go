package sender

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/promptbinder/core/logger"
	"github.com/m3rciful/promptbinder/core/telegram/keyboard"
	"github.com/m3rciful/promptbinder/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// ErrNoTransport is reported when a send is attempted before Bind.
var ErrNoTransport = errors.New("telegram sender: transport not bound")

// DefaultWindow is the cooldown between two sends of the same kind to one chat.
const DefaultWindow = 2 * time.Second

// auditTextLimit caps the message excerpt written to the audit trail.
const auditTextLimit = 80

// Outcome reports what happened to a single send call.
type Outcome int

const (
	Delivered Outcome = iota + 1
	Deduplicated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Deduplicated:
		return "deduplicated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Message is one outbound text message.
type Message struct {
	// Kind groups messages for de-duplication; empty kinds are never suppressed.
	Kind string
	// Text is HTML formatted.
	Text           string
	Keyboard       *tele.ReplyMarkup
	RemoveKeyboard bool
}

// Transport performs the actual Bot API calls.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Auditor receives one row per attempted send.
type Auditor interface {
	Record(chatID int64, event, detail, prompt string) error
}

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	Transport Transport
	Audit     Auditor
	// Window defaults to DefaultWindow.
	Window time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type sentKey struct {
	chatID int64
	kind   string
}

// Dispatcher sends messages synchronously, suppresses repeats of the same
// kind inside the cooldown window and records every attempt. Transport
// errors are absorbed into the returned Outcome.
type Dispatcher struct {
	mu        sync.Mutex
	transport Transport
	audit     Auditor
	window    time.Duration
	now       func() time.Time
	sent      map[sentKey]time.Time

	failures atomic.Uint64
}

// NewDispatcher builds a dispatcher, applying defaults for zero options.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		transport: opts.Transport,
		audit:     opts.Audit,
		window:    opts.Window,
		now:       opts.Now,
		sent:      make(map[sentKey]time.Time),
	}
}

// Bind sets the transport once the bot client exists.
func (d *Dispatcher) Bind(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transport = t
}

// Send delivers msg to chatID unless the same kind went out within the window.
func (d *Dispatcher) Send(ctx context.Context, chatID int64, msg Message) Outcome {
	if d.suppress(chatID, msg.Kind) {
		logger.Debug(ctx, "tg.sender", "send",
			slog.String("status", "dedup"),
			slog.String("kind", msg.Kind),
			slog.String("outcome", Deduplicated.String()),
		)
		return Deduplicated
	}

	markup := msg.Keyboard
	if msg.RemoveKeyboard {
		markup = keyboard.RemoveKeyboard()
	}

	start := time.Now()
	err := ErrNoTransport
	if t := d.currentTransport(); t != nil {
		err = t.SendText(ctx, chatID, msg.Text, markup)
	}
	excerpt := logger.SanitizeLimit(msg.Text, auditTextLimit)
	if err != nil {
		d.record(ctx, chatID, "send_fail", excerpt)
		d.logFailure(ctx, "send_message", msg.Kind, err, start)
		return Failed
	}
	d.record(ctx, chatID, "send_ok", excerpt)
	logger.Debug(ctx, "tg.sender", "send",
		slog.String("status", "ok"),
		slog.String("kind", msg.Kind),
		slog.String("outcome", Delivered.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return Delivered
}

// SendDocument uploads the file at path. Documents are never de-duplicated.
func (d *Dispatcher) SendDocument(ctx context.Context, chatID int64, path, caption string) Outcome {
	start := time.Now()
	err := ErrNoTransport
	if t := d.currentTransport(); t != nil {
		err = t.SendDocument(ctx, chatID, path, caption)
	}
	name := filepath.Base(path)
	if err != nil {
		d.record(ctx, chatID, "send_doc_fail", name)
		d.logFailure(ctx, "send_document", "", err, start)
		return Failed
	}
	d.record(ctx, chatID, "send_doc_ok", name)
	logger.Info(ctx, "tg.sender", "send_document",
		slog.String("status", "ok"),
		slog.String("path", name),
		slog.Duration("duration", logger.Took(start)),
	)
	return Delivered
}

// Forget drops every cooldown record of chatID.
func (d *Dispatcher) Forget(chatID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.sent {
		if key.chatID == chatID {
			delete(d.sent, key)
		}
	}
}

// FailureCount returns the number of failed sends since start.
func (d *Dispatcher) FailureCount() uint64 {
	return d.failures.Load()
}

// suppress reports whether kind was sent to chatID inside the window and
// otherwise stamps the record with the current time.
func (d *Dispatcher) suppress(chatID int64, kind string) bool {
	if kind == "" {
		return false
	}
	now := d.now()
	key := sentKey{chatID: chatID, kind: kind}

	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.sent[key]; ok && now.Sub(last) < d.window {
		return true
	}
	d.sent[key] = now
	return false
}

func (d *Dispatcher) currentTransport() Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transport
}

func (d *Dispatcher) record(ctx context.Context, chatID int64, event, detail string) {
	if d.audit == nil {
		return
	}
	if err := d.audit.Record(chatID, event, detail, ""); err != nil {
		logger.Warn(ctx, "tg.sender", "audit",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func (d *Dispatcher) logFailure(ctx context.Context, event, kind string, err error, start time.Time) {
	d.failures.Add(1)
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("outcome", Failed.String()),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("err_code", classifyError(err)),
		slog.Bool("retryable", netutil.ShouldRetry(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if kind != "" {
		attrs = append(attrs, slog.String("kind", kind))
	}
	if code := httpStatusFromError(err); code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	logger.Error(ctx, "tg.sender", event, attrs...)
}
