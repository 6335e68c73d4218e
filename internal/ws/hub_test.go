package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whatsapp-relay/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastsSessionUpdates(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer conn.Close()

	req.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.NotifySession(session.Status{State: "ready", Ready: true, Available: true})

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	req.NoError(err)

	var evt struct {
		Type string         `json:"type"`
		Data session.Status `json:"data"`
	}
	req.NoError(json.Unmarshal(raw, &evt))
	req.Equal(EventSessionUpdate, evt.Type)
	req.True(evt.Data.Ready)
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.NotifyBatch(map[string]int{"sent": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyBatch blocked")
	}
}

func TestHub_ReplaysLatestSessionToNewClients(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)
	hub.NotifySession(session.Status{State: "pairing", PairingPayload: strPtr("data:image/png;base64,AAAA")})

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	req.NoError(err)

	var evt struct {
		Type string         `json:"type"`
		Data session.Status `json:"data"`
	}
	req.NoError(json.Unmarshal(raw, &evt))
	req.Equal(EventSessionUpdate, evt.Type)
	req.Equal("pairing", evt.Data.State)
	req.NotNil(evt.Data.PairingPayload)
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	req.NoError(err)
	defer conn.Close()
	req.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	req.Eventually(func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = conn.ReadMessage()
	req.Error(err)
}

func strPtr(s string) *string { return &s }

func TestHub_BroadcastEventReachesClients(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	req.NoError(err)
	defer conn.Close()
	req.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent(EventBatchUpdate, map[string]int{"sent": 2, "failed": 1})

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"type":"batch_update","data":{"sent":2,"failed":1}}`, string(raw))
}
