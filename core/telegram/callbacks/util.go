package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallback returns the callback key and payload.
// Telebot encodes its own buttons as "\f<unique>|<payload>"; raw callback
// data such as "copy_prompt" is returned as the key with an empty payload.
func ParseCallback(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}
