package errs

import "errors"

var (
	// ErrSessionUnavailable means the transport could not be constructed at all.
	ErrSessionUnavailable = errors.New("whatsapp session unavailable")
	// ErrSessionNotReady means the transport exists but is not paired and ready.
	ErrSessionNotReady = errors.New("whatsapp session not ready")
	// ErrAuthenticationFailed means the pairing was rejected.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrTemplateNotFound means the referenced template does not exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrRecipientSendFailed wraps a single recipient's send error. It never aborts a batch.
	ErrRecipientSendFailed = errors.New("recipient send failed")
	// ErrNotFound is returned by repositories for unknown identifiers.
	ErrNotFound = errors.New("record not found")
	// ErrInternal marks an unexpected failure while orchestrating a request.
	ErrInternal = errors.New("internal error")
)

// DefaultNotReadyMessage is reported when the session is not sendable and no
// error has been recorded.
const DefaultNotReadyMessage = "WhatsApp client is not available or not ready. This is likely due to hosting environment limitations."

// NotReadyError is returned when a send is attempted while the session cannot send.
// LastError holds the most recent session error, if any.
type NotReadyError struct {
	LastError string
}

func (e *NotReadyError) Error() string {
	if e.LastError != "" {
		return e.LastError
	}
	return DefaultNotReadyMessage
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrSessionNotReady
}
