package session

// State is the lifecycle position of the messaging session.
type State int

const (
	StateUninitialized State = iota
	StatePairing
	StateReady
	StateDisconnected
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePairing:
		return "pairing"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Status is a consistent snapshot of the session.
type Status struct {
	State            string  `json:"state"`
	Ready            bool    `json:"ready"`
	PairingPayload   *string `json:"pairingPayload"`
	Error            *string `json:"error"`
	Available        bool    `json:"available"`
	DisconnectReason string  `json:"disconnectReason,omitempty"`
}
