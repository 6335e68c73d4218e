package whatsapp

import (
	"fmt"

	"whatsapp-relay/internal/transport"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"
)

// translateQR maps pairing channel items. A successful scan is not reported
// here; the Connected event that follows it marks the session ready.
func translateQR(item whatsmeow.QRChannelItem) (transport.Event, bool) {
	switch item.Event {
	case "code":
		return transport.Event{Kind: transport.EventPairing, Code: item.Code}, true
	case "success":
		return transport.Event{}, false
	case "timeout":
		return transport.Event{Kind: transport.EventDisconnected, Reason: "pairing timed out"}, true
	default:
		reason := item.Event
		if item.Error != nil {
			reason = fmt.Sprintf("%s: %v", item.Event, item.Error)
		}
		return transport.Event{Kind: transport.EventAuthFailed, Reason: reason}, true
	}
}

func translateEvent(evt interface{}) (transport.Event, bool) {
	switch v := evt.(type) {
	case *events.Connected:
		return transport.Event{Kind: transport.EventReady}, true
	case *events.LoggedOut:
		return transport.Event{Kind: transport.EventDisconnected, Reason: fmt.Sprintf("logged out (%v)", v.Reason)}, true
	case *events.Disconnected:
		return transport.Event{Kind: transport.EventDisconnected, Reason: "connection lost"}, true
	case *events.StreamReplaced:
		return transport.Event{Kind: transport.EventDisconnected, Reason: "session opened elsewhere"}, true
	case *events.PairError:
		return transport.Event{Kind: transport.EventAuthFailed, Reason: fmt.Sprintf("pairing failed: %v", v.Error)}, true
	case *events.ConnectFailure:
		return transport.Event{Kind: transport.EventAuthFailed, Reason: fmt.Sprintf("connect failure (%v)", v.Reason)}, true
	case *events.ClientOutdated:
		return transport.Event{Kind: transport.EventAuthFailed, Reason: "client outdated"}, true
	case *events.TemporaryBan:
		return transport.Event{Kind: transport.EventAuthFailed, Reason: "temporary ban"}, true
	default:
		return transport.Event{}, false
	}
}
