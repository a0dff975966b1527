package updates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"
)

// BotSource pulls updates through the bot's own Bot API client. An in-flight
// request is cancelled when the bot is stopped.
type BotSource struct {
	Bot *tele.Bot
}

type getUpdatesParams struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates issues one long-poll request. Answers the Bot API rejected come
// back as *tele.Error; anything else is a transport failure.
func (s *BotSource) GetUpdates(_ context.Context, offset int, timeout time.Duration, allowed []string) ([]tele.Update, error) {
	data, err := s.Bot.Raw("getUpdates", getUpdatesParams{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: allowed,
	})
	if err != nil {
		return nil, rejection(data, err)
	}

	var resp struct {
		Result []tele.Update
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("updates: decode getUpdates: %w", err)
	}
	return resp.Result, nil
}

// rejection turns an error answered with an ok=false body into *tele.Error.
// telebot only does that for descriptions it knows.
func rejection(data []byte, err error) error {
	if len(data) == 0 {
		return err
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return err
	}
	var body struct {
		Code        int    `json:"error_code"`
		Description string `json:"description"`
	}
	if json.Unmarshal(data, &body) != nil || body.Code == 0 {
		return err
	}
	return tele.NewError(body.Code, body.Description)
}
