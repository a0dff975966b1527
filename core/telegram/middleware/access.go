package middleware

import (
	"context"

	"github.com/m3rciful/promptbinder/core/telegram/commands"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// AdminID is the only chat allowed through; zero denies everyone.
	AdminID  int64
	OnReject commands.Handler
}

// AdminOnly wraps next so that only the configured admin chat reaches it.
func AdminOnly(opts AdminOptions, next commands.Handler) commands.Handler {
	return func(ctx context.Context, req commands.Request) error {
		if opts.AdminID == 0 || req.ChatID != opts.AdminID {
			if opts.OnReject != nil {
				return opts.OnReject(ctx, req)
			}
			return nil
		}
		return next(ctx, req)
	}
}
