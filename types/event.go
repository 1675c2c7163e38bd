package types

// EventKind identifies the type of a push event delivered by the connection.
//
// The kinds mirror the frames a Redis server pushes on a subscribed
// connection: subscribe/unsubscribe confirmations for each of the three
// subscription classes, and the message frames themselves.
type EventKind int

const (
	// EventSubscribe confirms a SUBSCRIBE for one channel.
	EventSubscribe EventKind = iota

	// EventUnsubscribe confirms an UNSUBSCRIBE for one channel.
	EventUnsubscribe

	// EventMessage carries a payload published to an exact-match channel.
	EventMessage

	// EventPSubscribe confirms a PSUBSCRIBE for one pattern.
	EventPSubscribe

	// EventPUnsubscribe confirms a PUNSUBSCRIBE for one pattern.
	EventPUnsubscribe

	// EventPMessage carries a payload matched by a glob pattern.
	EventPMessage

	// EventSSubscribe confirms an SSUBSCRIBE for one shard channel.
	EventSSubscribe

	// EventSUnsubscribe confirms a SUNSUBSCRIBE for one shard channel.
	EventSUnsubscribe

	// EventSMessage carries a payload published to a shard channel.
	EventSMessage
)

// String returns the wire-level name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSubscribe:
		return "subscribe"
	case EventUnsubscribe:
		return "unsubscribe"
	case EventMessage:
		return "message"
	case EventPSubscribe:
		return "psubscribe"
	case EventPUnsubscribe:
		return "punsubscribe"
	case EventPMessage:
		return "pmessage"
	case EventSSubscribe:
		return "ssubscribe"
	case EventSUnsubscribe:
		return "sunsubscribe"
	case EventSMessage:
		return "smessage"
	default:
		return "unknown"
	}
}

// IsMessage reports whether the kind carries an application payload.
func (k EventKind) IsMessage() bool {
	return k == EventMessage || k == EventPMessage || k == EventSMessage
}

// IsSubscribeAck reports whether the kind confirms a subscribe command.
func (k EventKind) IsSubscribeAck() bool {
	return k == EventSubscribe || k == EventPSubscribe || k == EventSSubscribe
}

// IsUnsubscribeAck reports whether the kind confirms an unsubscribe command.
func (k EventKind) IsUnsubscribeAck() bool {
	return k == EventUnsubscribe || k == EventPUnsubscribe || k == EventSUnsubscribe
}

// Event is one typed push event from the connection's receive primitive.
//
// Field usage by kind:
//   - message/smessage: Channel and Payload are set
//   - pmessage: Pattern, Channel and Payload are set; Pattern is the
//     subscribed glob the server matched, Channel the concrete channel
//   - subscribe/unsubscribe acks: Channel (or Pattern for the p-variants)
//     and Count are set; Count is the connection's remaining subscription
//     count for that class as reported by the server
type Event struct {
	Kind    EventKind
	Channel string
	Pattern string
	Payload string
	Count   int64
}
