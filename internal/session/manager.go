// Package session owns the single messaging session of the process and tracks
// its lifecycle from transport events.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"whatsapp-relay/internal/errs"
	"whatsapp-relay/internal/transport"

	"github.com/rs/zerolog"
)

// DemoPairingNotice is encoded into the placeholder pairing payload shown when
// no transport can be constructed.
const DemoPairingNotice = "Demo mode - WhatsApp not available in this environment"

// FallbackDomain is used for address normalisation before a transport exists.
const FallbackDomain = "s.whatsapp.net"

// PairingRenderer turns a raw pairing code into what clients display.
type PairingRenderer interface {
	Render(code string) (string, error)
}

// Notifier receives every status change.
type Notifier interface {
	NotifySession(status Status)
}

type Manager struct {
	factory  transport.Factory
	renderer PairingRenderer
	notifier Notifier
	log      zerolog.Logger

	mu               sync.RWMutex
	state            State
	pairing          *string
	lastErr          *string
	available        bool
	disconnectReason string
	tr               transport.Transport
	gen              uint64
	base             context.Context
	cancel           context.CancelFunc
}

func NewManager(factory transport.Factory, renderer PairingRenderer, notifier Notifier, log zerolog.Logger) *Manager {
	return &Manager{
		factory:  factory,
		renderer: renderer,
		notifier: notifier,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// Start constructs the transport and begins consuming its lifecycle events.
// Construction failures are recorded as session state; the returned error is
// informational only.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.base == nil {
		m.base = ctx
	}
	m.gen++
	gen := m.gen
	runCtx, cancel := context.WithCancel(m.base)
	m.cancel = cancel
	m.mu.Unlock()

	m.log.Info().Msg("Attempting to initialize WhatsApp client...")

	tr, err := m.factory(runCtx)
	if err != nil {
		cancel()
		m.fail(gen, err)
		return fmt.Errorf("%w: %v", errs.ErrSessionUnavailable, err)
	}

	events, err := tr.Start(runCtx)
	if err != nil {
		cancel()
		_ = tr.Close()
		m.fail(gen, err)
		return fmt.Errorf("%w: %v", errs.ErrSessionUnavailable, err)
	}

	m.mu.Lock()
	if gen != m.gen {
		// Restarted while we were constructing.
		m.mu.Unlock()
		cancel()
		_ = tr.Close()
		return nil
	}
	m.tr = tr
	m.available = true
	st := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(st)

	go m.consume(gen, events)
	return nil
}

// Restart drops the current transport and constructs a new one. It is the only
// way out of the errored state.
func (m *Manager) Restart() error {
	m.mu.Lock()
	base := m.base
	m.mu.Unlock()
	if base == nil {
		return errors.New("session manager not started")
	}

	m.shutdown()

	m.mu.Lock()
	m.state = StateUninitialized
	m.pairing = nil
	m.lastErr = nil
	m.available = false
	m.disconnectReason = ""
	st := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(st)

	return m.Start(base)
}

// Close stops the transport. Events arriving afterwards are ignored.
func (m *Manager) Close() error {
	return m.shutdown()
}

func (m *Manager) shutdown() error {
	m.mu.Lock()
	m.gen++
	tr := m.tr
	cancel := m.cancel
	m.tr = nil
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		return tr.Close()
	}
	return nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) IsSendable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady && m.tr != nil
}

// LastError returns the recorded error message, or "" when there is none.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastErr == nil {
		return ""
	}
	return *m.lastErr
}

func (m *Manager) DefaultDomain() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tr == nil {
		return FallbackDomain
	}
	return m.tr.DefaultDomain()
}

// Send delivers msg through the live transport. It fails with a NotReadyError
// if the session stopped being ready, e.g. mid-batch.
func (m *Manager) Send(ctx context.Context, to string, msg transport.Message) error {
	m.mu.RLock()
	tr := m.tr
	ready := m.state == StateReady
	lastErr := ""
	if m.lastErr != nil {
		lastErr = *m.lastErr
	}
	m.mu.RUnlock()

	if !ready || tr == nil {
		return &errs.NotReadyError{LastError: lastErr}
	}
	return tr.Send(ctx, to, msg)
}

func (m *Manager) consume(gen uint64, events <-chan transport.Event) {
	for ev := range events {
		m.apply(gen, ev)
	}
	m.log.Debug().Uint64("generation", gen).Msg("transport event stream closed")
}

func (m *Manager) fail(gen uint64, cause error) {
	m.log.Error().Err(cause).Msg("WhatsApp client initialization failed")

	payload := m.render(DemoPairingNotice)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = StateErrored
	m.available = false
	msg := "WhatsApp functionality unavailable: " + cause.Error()
	m.lastErr = &msg
	m.pairing = payload
	st := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(st)
}

// apply performs one transition atomically. Events from a replaced transport
// generation, and any event after the session errored, are dropped.
func (m *Manager) apply(gen uint64, ev transport.Event) {
	var payload *string
	if ev.Kind == transport.EventPairing {
		payload = m.render(ev.Code)
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	from := m.state
	if from == StateErrored {
		m.mu.Unlock()
		m.log.Debug().Str("event", ev.Kind.String()).Msg("ignoring event on errored session")
		return
	}

	changed := true
	switch ev.Kind {
	case transport.EventPairing:
		if from == StateReady {
			changed = false
			break
		}
		m.state = StatePairing
		m.pairing = payload
		m.lastErr = nil
	case transport.EventReady:
		m.state = StateReady
		m.pairing = nil
		m.lastErr = nil
		m.available = true
		m.disconnectReason = ""
	case transport.EventDisconnected:
		if from != StateReady && from != StatePairing {
			changed = false
			break
		}
		m.state = StateDisconnected
		m.pairing = nil
		m.disconnectReason = ev.Reason
	case transport.EventAuthFailed:
		m.state = StateErrored
		m.pairing = nil
		msg := "Authentication failed: " + ev.Reason
		m.lastErr = &msg
	default:
		changed = false
	}
	st := m.snapshotLocked()
	m.mu.Unlock()

	if !changed {
		m.log.Warn().Str("event", ev.Kind.String()).Str("state", from.String()).Msg("ignoring unexpected session event")
		return
	}

	logEvt := m.log.Info()
	if ev.Kind == transport.EventAuthFailed {
		logEvt = m.log.Error().Err(fmt.Errorf("%w: %s", errs.ErrAuthenticationFailed, ev.Reason))
	}
	logEvt.Str("event", ev.Kind.String()).
		Str("from", from.String()).
		Str("to", st.State).
		Str("reason", ev.Reason).
		Msg("session state changed")
	m.publish(st)
}

func (m *Manager) render(code string) *string {
	if m.renderer == nil {
		return &code
	}
	out, err := m.renderer.Render(code)
	if err != nil {
		m.log.Error().Err(err).Msg("Error generating QR code")
		return nil
	}
	return &out
}

func (m *Manager) snapshotLocked() Status {
	st := Status{
		State:            m.state.String(),
		Ready:            m.state == StateReady,
		Available:        m.available,
		DisconnectReason: m.disconnectReason,
	}
	if m.pairing != nil {
		p := *m.pairing
		st.PairingPayload = &p
	}
	if m.lastErr != nil {
		e := *m.lastErr
		st.Error = &e
	}
	return st
}

func (m *Manager) publish(st Status) {
	if m.notifier != nil {
		m.notifier.NotifySession(st)
	}
}
