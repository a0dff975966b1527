package commands

import "context"

// Request is the transport-neutral view of one inbound text or callback.
type Request struct {
	UpdateID int
	ChatID   int64
	UserID   int64
	// Text is the trimmed message text; empty for callbacks.
	Text string
	// Key and Data carry the parsed callback payload.
	Key  string
	Data string
	// LangCode is the sender's Telegram client language, if reported.
	LangCode string
}

// Handler processes a single request.
type Handler func(ctx context.Context, req Request) error

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     Handler
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are exact texts (usually reply keyboard labels) that trigger the command.
	Aliases []string
}
