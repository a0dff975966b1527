package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/promptbinder/core/telegram"
	"github.com/m3rciful/promptbinder/core/telegram/callbacks"
	"github.com/m3rciful/promptbinder/core/telegram/commands"
	"github.com/m3rciful/promptbinder/core/telegram/middleware"
)

type calls []string

func (c *calls) handler(name string) commands.Handler {
	return func(context.Context, commands.Request) error {
		*c = append(*c, name)
		return nil
	}
}

func newRegistry(t *testing.T, c *calls) *tg.Registry {
	t.Helper()
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: c.handler("start"), Description: "menu"}))
	require.NoError(t, reg.RegisterCommand("/cancel", commands.Command{Handler: c.handler("cancel"), Description: "cancel", Aliases: []string{"❌ Отмена"}}))
	require.NoError(t, reg.RegisterCommand("/export_stats", commands.Command{Handler: c.handler("export"), Description: "export", AdminOnly: true}))
	require.NoError(t, reg.RegisterCallback("copy_prompt", c.handler("copy")))
	reg.SetTextFallback(c.handler("text"))
	reg.SetCallbackNotFound(c.handler("callback_missing"))
	return reg
}

func TestDispatchCommandsBeforeText(t *testing.T) {
	var c calls
	reg := newRegistry(t, &c)
	opts := Options{AdminID: 1, OnAdminReject: c.handler("denied")}
	ctx := context.Background()

	for _, text := range []string{"/start", "❌ Отмена", "/unknown", "Видео"} {
		require.NoError(t, Dispatch(ctx, reg, opts, commands.Request{ChatID: 2, Text: text}))
	}
	assert.Equal(t, calls{"start", "cancel", "text", "text"}, c)
}

func TestDispatchGatesAdminCommands(t *testing.T) {
	var c calls
	reg := newRegistry(t, &c)
	ctx := context.Background()

	opts := Options{AdminID: 1, OnAdminReject: c.handler("denied")}
	require.NoError(t, Dispatch(ctx, reg, opts, commands.Request{ChatID: 2, Text: "/export_stats"}))
	require.NoError(t, Dispatch(ctx, reg, opts, commands.Request{ChatID: 1, Text: "/export_stats"}))

	opts.AdminID = 0
	require.NoError(t, Dispatch(ctx, reg, opts, commands.Request{ChatID: 0, Text: "/export_stats"}))
	assert.Equal(t, calls{"denied", "export", "denied"}, c)
}

func TestDispatchCallbackFallsBack(t *testing.T) {
	var c calls
	reg := newRegistry(t, &c)
	ctx := context.Background()

	require.NoError(t, DispatchCallback(ctx, reg, commands.Request{Key: "copy_prompt"}))
	require.NoError(t, DispatchCallback(ctx, reg, commands.Request{Key: "gone"}))
	assert.Equal(t, calls{"copy", "callback_missing"}, c)
}

func TestParseCallbackRawAndUnique(t *testing.T) {
	key, data := callbacks.ParseCallback(&tele.Callback{Data: "copy_prompt"})
	assert.Equal(t, "copy_prompt", key)
	assert.Empty(t, data)

	key, data = callbacks.ParseCallback(&tele.Callback{Data: "\fpick|42"})
	assert.Equal(t, "pick", key)
	assert.Equal(t, "42", data)

	key, data = callbacks.ParseCallback(&tele.Callback{Unique: "pick", Data: "7"})
	assert.Equal(t, "pick", key)
	assert.Equal(t, "7", data)
}

func TestCommandRoutesCoverRegistry(t *testing.T) {
	var c calls
	reg := newRegistry(t, &c)
	routes := CommandRoutes(reg, Options{})
	var endpoints []any
	for _, r := range routes {
		endpoints = append(endpoints, r.Endpoint)
	}
	assert.Equal(t, []any{"/cancel", "/export_stats", "/start"}, endpoints)
	assert.Equal(t, tele.OnText, TextRoutes(reg, Options{})[0].Endpoint)
	assert.Equal(t, tele.OnCallback, CallbackRoute(reg).Endpoint)
}

func TestRateLimitedCallbacksAreAnswered(t *testing.T) {
	var answered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/answerCallbackQuery") {
			answered.Add(1)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	bot, err := tele.NewBot(tele.Settings{Offline: true, URL: srv.URL, Token: "T", Client: srv.Client(), Synchronous: true})
	require.NoError(t, err)

	var c calls
	reg := newRegistry(t, &c)
	var limited []commands.Request
	bot.Use(middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval: time.Minute,
		OnLimited: Handler("limited", func(_ context.Context, req commands.Request) error {
			limited = append(limited, req)
			return nil
		}),
	}))
	for _, r := range append(TextRoutes(reg, Options{}), CallbackRoute(reg)) {
		bot.Handle(r.Endpoint, r.Handler)
	}

	user := &tele.User{ID: 5}
	chat := &tele.Chat{ID: 5, Type: tele.ChatPrivate}
	press := func(id int) tele.Update {
		return tele.Update{ID: id, Callback: &tele.Callback{
			ID:      "cb" + strconv.Itoa(id),
			Sender:  user,
			Data:    "copy_prompt",
			Message: &tele.Message{ID: 1, Chat: chat},
		}}
	}
	bot.ProcessUpdate(press(1))
	bot.ProcessUpdate(press(2))
	bot.ProcessUpdate(tele.Update{ID: 3, Message: &tele.Message{ID: 2, Chat: chat, Sender: user, Text: "тема"}})

	assert.Equal(t, int32(2), answered.Load())
	assert.Equal(t, calls{"copy"}, c)
	require.Len(t, limited, 2)
	assert.Equal(t, "copy_prompt", limited[0].Key)
	assert.Equal(t, "тема", limited[1].Text)
}
