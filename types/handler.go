package types

// MessageHandler is the callback invoked for messages on exact-match
// channels and shard channels.
//
// message is the raw payload string, or the decoded JSON value
// (map[string]any, []any, string, float64, bool, nil) when the
// subscription was registered with decoding enabled and the payload
// parsed successfully. On a parse failure the raw string is passed
// unchanged.
//
// Handlers execute synchronously on the runtime's single receive
// goroutine, in server delivery order. A handler that blocks stalls the
// entire receive loop; a handler that panics terminates it.
type MessageHandler func(channel string, message any)

// PatternHandler is the callback invoked for messages matched by a glob
// pattern subscription. pattern is the subscribed glob the server
// reported as matched, channel the concrete channel the message was
// published to. The message argument follows the same decoding rules as
// MessageHandler.
type PatternHandler func(pattern, channel string, message any)
