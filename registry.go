package redisub

import (
	"slices"
	"sync"
)

// channelEntry is one registration in the channel or shard-channel table.
type channelEntry struct {
	handler MessageHandler
	decode  bool
}

// patternEntry is one registration in the pattern table.
type patternEntry struct {
	handler PatternHandler
	decode  bool
}

// registry holds the three independent subscription tables.
//
// Within one table a key maps to at most one entry; re-registering a key
// replaces its handler and decode flag (last registration wins). The
// registry never talks to the connection; it is pure in-memory state.
//
// Mutation happens only through the Subscriber's registration API before
// the runtime starts; afterwards the tables are read from the receive
// goroutine and, during shutdown, from the goroutine driving Stop. The
// RWMutex covers that narrow cross-goroutine read window.
type registry struct {
	mu       sync.RWMutex
	channels map[string]channelEntry
	patterns map[string]patternEntry
	shards   map[string]channelEntry
}

func newRegistry() *registry {
	return &registry{
		channels: make(map[string]channelEntry),
		patterns: make(map[string]patternEntry),
		shards:   make(map[string]channelEntry),
	}
}

func (r *registry) addChannels(decode bool, handler MessageHandler, names []string) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(names) == 0 {
		return ErrChannelRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.channels[name] = channelEntry{handler: handler, decode: decode}
	}

	return nil
}

func (r *registry) addPatterns(decode bool, handler PatternHandler, patterns []string) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(patterns) == 0 {
		return ErrChannelRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pattern := range patterns {
		r.patterns[pattern] = patternEntry{handler: handler, decode: decode}
	}

	return nil
}

func (r *registry) addShards(decode bool, handler MessageHandler, names []string) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(names) == 0 {
		return ErrChannelRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.shards[name] = channelEntry{handler: handler, decode: decode}
	}

	return nil
}

// hasAny reports whether any of the three tables is non-empty. Used as the
// precondition gate before starting the runtime.
func (r *registry) hasAny() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.channels) > 0 || len(r.patterns) > 0 || len(r.shards) > 0
}

// keys returns the registered channel, pattern, and shard-channel names in
// sorted order. Sorting keeps subscribe command batches deterministic.
func (r *registry) keys() (channels, patterns, shards []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels = make([]string, 0, len(r.channels))
	for name := range r.channels {
		channels = append(channels, name)
	}
	patterns = make([]string, 0, len(r.patterns))
	for pattern := range r.patterns {
		patterns = append(patterns, pattern)
	}
	shards = make([]string, 0, len(r.shards))
	for name := range r.shards {
		shards = append(shards, name)
	}

	slices.Sort(channels)
	slices.Sort(patterns)
	slices.Sort(shards)

	return channels, patterns, shards
}

func (r *registry) channel(name string) (channelEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.channels[name]

	return e, ok
}

func (r *registry) pattern(name string) (patternEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.patterns[name]

	return e, ok
}

func (r *registry) shard(name string) (channelEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.shards[name]

	return e, ok
}
