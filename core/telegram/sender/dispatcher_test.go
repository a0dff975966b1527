package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type sentText struct {
	chatID int64
	text   string
	markup *tele.ReplyMarkup
}

type fakeTransport struct {
	mu    sync.Mutex
	texts []sentText
	docs  []string
	err   error
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, sentText{chatID: chatID, text: text, markup: markup})
	return nil
}

func (f *fakeTransport) SendDocument(_ context.Context, _ int64, path, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, path)
	return nil
}

type auditRow struct {
	chatID int64
	event  string
	detail string
}

type fakeAudit struct {
	rows []auditRow
}

func (a *fakeAudit) Record(chatID int64, event, detail, _ string) error {
	a.rows = append(a.rows, auditRow{chatID: chatID, event: event, detail: detail})
	return nil
}

type fakeClock struct{ t time.Time }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDispatcher(tr Transport, audit Auditor, clock *fakeClock) *Dispatcher {
	return NewDispatcher(Options{Transport: tr, Audit: audit, Now: clock.Now})
}

func TestSendSuppressesSameKindInsideWindow(t *testing.T) {
	tr := &fakeTransport{}
	clock := newClock()
	d := newTestDispatcher(tr, nil, clock)
	ctx := context.Background()

	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Kind: "menu", Text: "a"}))
	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, Deduplicated, d.Send(ctx, 1, Message{Kind: "menu", Text: "b"}))
	clock.Advance(DefaultWindow)
	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Kind: "menu", Text: "c"}))

	require.Len(t, tr.texts, 2)
	assert.Equal(t, "a", tr.texts[0].text)
	assert.Equal(t, "c", tr.texts[1].text)
}

func TestSendKeysCooldownByChatAndKind(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDispatcher(tr, nil, newClock())
	ctx := context.Background()

	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Kind: "menu"}))
	assert.Equal(t, Delivered, d.Send(ctx, 2, Message{Kind: "menu"}))
	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Kind: "help"}))
	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Text: "field"}))
	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Text: "field"}))
	assert.Len(t, tr.texts, 5)
}

func TestForgetClearsOnlyThatChat(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDispatcher(tr, nil, newClock())
	ctx := context.Background()

	d.Send(ctx, 1, Message{Kind: "menu"})
	d.Send(ctx, 2, Message{Kind: "menu"})
	d.Forget(1)

	assert.Equal(t, Delivered, d.Send(ctx, 1, Message{Kind: "menu"}))
	assert.Equal(t, Deduplicated, d.Send(ctx, 2, Message{Kind: "menu"}))
}

func TestSendFailureIsRecordedNotPropagated(t *testing.T) {
	tr := &fakeTransport{err: fmt.Errorf("post https://api.telegram.org/bot123:AbC-def/sendMessage: %w", errors.New("connection refused"))}
	audit := &fakeAudit{}
	d := newTestDispatcher(tr, audit, newClock())

	long := strings.Repeat("я", 100)
	assert.Equal(t, Failed, d.Send(context.Background(), 7, Message{Kind: "menu", Text: long}))
	assert.EqualValues(t, 1, d.FailureCount())

	require.Len(t, audit.rows, 1)
	assert.Equal(t, "send_fail", audit.rows[0].event)
	assert.Equal(t, int64(7), audit.rows[0].chatID)
	assert.Len(t, []rune(audit.rows[0].detail), auditTextLimit)

	assert.NotContains(t, sanitizeErrorMessage(tr.err), "AbC-def")
}

func TestSendWithoutTransportFails(t *testing.T) {
	d := NewDispatcher(Options{})
	assert.Equal(t, Failed, d.Send(context.Background(), 1, Message{Text: "x"}))
	assert.Equal(t, "no_transport", classifyError(ErrNoTransport))
}

func TestSendRemoveKeyboardOverridesKeyboard(t *testing.T) {
	tr := &fakeTransport{}
	d := newTestDispatcher(tr, &fakeAudit{}, newClock())

	d.Send(context.Background(), 1, Message{Text: "x", Keyboard: &tele.ReplyMarkup{ResizeKeyboard: true}, RemoveKeyboard: true})

	require.Len(t, tr.texts, 1)
	require.NotNil(t, tr.texts[0].markup)
	assert.True(t, tr.texts[0].markup.RemoveKeyboard)
}

func TestSendDocumentAudited(t *testing.T) {
	tr := &fakeTransport{}
	audit := &fakeAudit{}
	d := newTestDispatcher(tr, audit, newClock())

	assert.Equal(t, Delivered, d.SendDocument(context.Background(), 9, "/data/stats.csv", ""))
	assert.Equal(t, []string{"/data/stats.csv"}, tr.docs)
	require.Len(t, audit.rows, 1)
	assert.Equal(t, auditRow{chatID: 9, event: "send_doc_ok", detail: "stats.csv"}, audit.rows[0])
}

func TestClassifyError(t *testing.T) {
	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"http_4xx": errors.New("telegram: bad request: chat not found (400)"),
		"http_5xx": errors.New("telegram: internal error (502)"),
		"flood":    errors.New("telegram: too many requests (429)"),
		"unknown":  errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, classifyError(err), err.Error())
	}
}
