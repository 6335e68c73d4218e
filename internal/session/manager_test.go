package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"whatsapp-relay/internal/errs"
	"whatsapp-relay/internal/transport"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	events chan transport.Event
	closed bool
	mu     sync.Mutex
	sent   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan transport.Event, 16)}
}

func (f *fakeTransport) Start(context.Context) (<-chan transport.Event, error) {
	return f.events, nil
}

func (f *fakeTransport) Send(_ context.Context, to string, _ transport.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeTransport) DefaultDomain() string { return "c.us" }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

type prefixRenderer struct{}

func (prefixRenderer) Render(code string) (string, error) { return "qr:" + code, nil }

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) { return "", errors.New("encoder broke") }

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []Status
}

func (n *recordingNotifier) NotifySession(st Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, st)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.statuses)
}

func startedManager(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	m := NewManager(func(context.Context) (transport.Transport, error) { return tr, nil }, prefixRenderer{}, nil, zerolog.Nop())
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Close() })
	return m, tr
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Status().State == want.String() }, time.Second, 5*time.Millisecond)
}

func TestManager_PairingThenReady(t *testing.T) {
	req := require.New(t)
	m, tr := startedManager(t)

	st := m.Status()
	req.Equal(StateUninitialized.String(), st.State)
	req.True(st.Available)
	req.False(m.IsSendable())

	tr.events <- transport.Event{Kind: transport.EventPairing, Code: "2@abc"}
	waitForState(t, m, StatePairing)
	st = m.Status()
	req.NotNil(st.PairingPayload)
	req.Equal("qr:2@abc", *st.PairingPayload)
	req.False(st.Ready)

	tr.events <- transport.Event{Kind: transport.EventReady}
	waitForState(t, m, StateReady)
	st = m.Status()
	req.True(st.Ready)
	req.Nil(st.PairingPayload)
	req.Nil(st.Error)
	req.True(m.IsSendable())
}

func TestManager_ConstructionFailureUsesDemoPayload(t *testing.T) {
	req := require.New(t)
	notifier := &recordingNotifier{}
	m := NewManager(func(context.Context) (transport.Transport, error) {
		return nil, errors.New("no browser")
	}, prefixRenderer{}, notifier, zerolog.Nop())

	err := m.Start(context.Background())
	req.ErrorIs(err, errs.ErrSessionUnavailable)

	st := m.Status()
	req.Equal(StateErrored.String(), st.State)
	req.False(st.Available)
	req.False(m.IsSendable())
	req.NotNil(st.Error)
	req.Contains(*st.Error, "no browser")
	req.NotNil(st.PairingPayload)
	req.Equal("qr:"+DemoPairingNotice, *st.PairingPayload)
	req.Equal(1, notifier.count())
}

func TestManager_AuthFailureKeepsAvailability(t *testing.T) {
	req := require.New(t)
	m := NewManager(nil, prefixRenderer{}, nil, zerolog.Nop())
	m.gen = 1
	m.available = true

	m.apply(1, transport.Event{Kind: transport.EventPairing, Code: "x"})
	m.apply(1, transport.Event{Kind: transport.EventAuthFailed, Reason: "rejected"})

	st := m.Status()
	req.Equal(StateErrored.String(), st.State)
	req.True(st.Available)
	req.Equal("Authentication failed: rejected", *st.Error)

	// Errored is terminal for this transport instance.
	m.apply(1, transport.Event{Kind: transport.EventReady})
	req.Equal(StateErrored.String(), m.Status().State)
}

func TestManager_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		events []transport.Event
		want   State
	}{
		{
			name:   "ready then disconnected",
			events: []transport.Event{{Kind: transport.EventReady}, {Kind: transport.EventDisconnected, Reason: "logout"}},
			want:   StateDisconnected,
		},
		{
			name: "disconnected session pairs again",
			events: []transport.Event{
				{Kind: transport.EventReady},
				{Kind: transport.EventDisconnected},
				{Kind: transport.EventPairing, Code: "again"},
			},
			want: StatePairing,
		},
		{
			name:   "pairing while ready is ignored",
			events: []transport.Event{{Kind: transport.EventReady}, {Kind: transport.EventPairing, Code: "late"}},
			want:   StateReady,
		},
		{
			name:   "disconnect before anything is ignored",
			events: []transport.Event{{Kind: transport.EventDisconnected}},
			want:   StateUninitialized,
		},
		{
			name:   "stored credentials go straight to ready",
			events: []transport.Event{{Kind: transport.EventReady}},
			want:   StateReady,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, prefixRenderer{}, nil, zerolog.Nop())
			m.gen = 1
			for _, ev := range tt.events {
				m.apply(1, ev)
			}
			require.Equal(t, tt.want.String(), m.Status().State)
		})
	}
}

func TestManager_DisconnectClearsPairingAndRecordsReason(t *testing.T) {
	req := require.New(t)
	m := NewManager(nil, prefixRenderer{}, nil, zerolog.Nop())
	m.gen = 1

	m.apply(1, transport.Event{Kind: transport.EventPairing, Code: "c"})
	m.apply(1, transport.Event{Kind: transport.EventDisconnected, Reason: "qr timeout"})

	st := m.Status()
	req.Nil(st.PairingPayload)
	req.Equal("qr timeout", st.DisconnectReason)
	req.False(st.Ready)
}

func TestManager_RenderFailureLeavesPayloadEmpty(t *testing.T) {
	m := NewManager(nil, failingRenderer{}, nil, zerolog.Nop())
	m.gen = 1
	m.apply(1, transport.Event{Kind: transport.EventPairing, Code: "c"})

	st := m.Status()
	require.Equal(t, StatePairing.String(), st.State)
	require.Nil(t, st.PairingPayload)
}

func TestManager_StaleGenerationIgnored(t *testing.T) {
	m := NewManager(nil, prefixRenderer{}, nil, zerolog.Nop())
	m.gen = 2
	m.apply(1, transport.Event{Kind: transport.EventReady})
	require.Equal(t, StateUninitialized.String(), m.Status().State)
}

func TestManager_SendRequiresReady(t *testing.T) {
	req := require.New(t)
	m, tr := startedManager(t)

	err := m.Send(context.Background(), "1@c.us", transport.Message{Text: "hi"})
	req.ErrorIs(err, errs.ErrSessionNotReady)

	tr.events <- transport.Event{Kind: transport.EventReady}
	waitForState(t, m, StateReady)
	req.NoError(m.Send(context.Background(), "1@c.us", transport.Message{Text: "hi"}))
	req.Equal("c.us", m.DefaultDomain())
}

func TestManager_RestartLeavesErroredState(t *testing.T) {
	req := require.New(t)
	attempts := 0
	var tr *fakeTransport
	m := NewManager(func(context.Context) (transport.Transport, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("first boot fails")
		}
		tr = newFakeTransport()
		return tr, nil
	}, prefixRenderer{}, nil, zerolog.Nop())
	t.Cleanup(func() { _ = m.Close() })

	req.Error(m.Start(context.Background()))
	req.Equal(StateErrored.String(), m.Status().State)

	req.NoError(m.Restart())
	st := m.Status()
	req.Equal(StateUninitialized.String(), st.State)
	req.True(st.Available)
	req.Nil(st.Error)

	tr.events <- transport.Event{Kind: transport.EventReady}
	waitForState(t, m, StateReady)
}

func TestManager_RestartBeforeStart(t *testing.T) {
	m := NewManager(nil, nil, nil, zerolog.Nop())
	require.Error(t, m.Restart())
}
