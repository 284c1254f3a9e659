// Package sl contains small helpers for structured logging with slog.
package sl

import "log/slog"

// Err returns a slog.Attr with key "error" and the error text, keeping
// error output uniform across the codebase.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
