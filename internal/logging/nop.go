package logging

import "github.com/bsbodden/redis-ruby-sub007/types"

// NopLogger implements a no-op logger.
//
// All log output is discarded. This is the default when no logger is
// provided, eliminating nil checks throughout the codebase.
type NopLogger struct{}

// Compile-time assertion that NopLogger implements Logger.
var _ types.Logger = (*NopLogger)(nil)

// NewNop creates a new no-op logger.
func NewNop() *NopLogger {
	return &NopLogger{}
}

// Debug discards the message.
func (l *NopLogger) Debug(_ string, _ ...any) {}

// Info discards the message.
func (l *NopLogger) Info(_ string, _ ...any) {}

// Warn discards the message.
func (l *NopLogger) Warn(_ string, _ ...any) {}

// Error discards the message.
func (l *NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message. Unlike a real Fatal it does not exit; a
// no-op logger must never terminate the host process.
func (l *NopLogger) Fatal(_ string, _ ...any) {}
