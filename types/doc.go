// Package types defines the shared types and interfaces used across the
// redisub library.
//
// This package exists to break import cycles: internal packages (logging,
// metrics, hooks) and sibling packages (redisconn, testing) depend on these
// definitions without depending on the root redisub package. The root
// package re-exports everything here via type aliases, so application code
// normally imports redisub only.
//
// Key definitions:
//   - Conn: the contract consumed from the wire/connection layer
//   - Event: a typed push event delivered by Conn.Receive
//   - State: the subscriber runtime lifecycle enum
//   - MessageHandler, PatternHandler: caller-supplied callbacks
//   - Logger, MetricsCollector, Hooks: pluggable observability surfaces
package types
