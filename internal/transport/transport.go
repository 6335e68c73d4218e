// Package transport describes the messaging session capability the relay
// drives: establish a session, send messages, and report lifecycle events.
package transport

import (
	"context"
)

// EventKind enumerates lifecycle notifications a transport can emit.
type EventKind int

const (
	// EventPairing carries a fresh pairing code to present to the user's phone.
	EventPairing EventKind = iota + 1
	// EventReady means the session is authenticated and can send.
	EventReady
	// EventDisconnected means an established session ended.
	EventDisconnected
	// EventAuthFailed means pairing or login was rejected.
	EventAuthFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPairing:
		return "pairing"
	case EventReady:
		return "ready"
	case EventDisconnected:
		return "disconnected"
	case EventAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// Event is a single lifecycle notification. Code is set for EventPairing,
// Reason for EventDisconnected and EventAuthFailed.
type Event struct {
	Kind   EventKind
	Code   string
	Reason string
}

// Media is an attachment sent with the message text as its caption.
type Media struct {
	Data     []byte
	MimeType string
	FileName string
}

type Message struct {
	Text  string
	Media *Media
}

// Transport is one live messaging session.
//
// Start begins connecting and returns the channel on which lifecycle events are
// delivered; the channel is closed when the transport is closed. Send addresses
// recipients by their full address (user@domain).
type Transport interface {
	Start(ctx context.Context) (<-chan Event, error)
	Send(ctx context.Context, to string, msg Message) error
	DefaultDomain() string
	Close() error
}

// Factory constructs a transport. A factory error means the messaging session
// is unavailable in this environment.
type Factory func(ctx context.Context) (Transport, error)
