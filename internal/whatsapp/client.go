package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"whatsapp-relay/internal/config"
	"whatsapp-relay/internal/transport"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

var errClosed = errors.New("whatsapp client closed")

// Client is a transport.Transport backed by a WhatsApp multi-device session.
// Pairing credentials live in a SQLite file under the session directory so a
// restarted process logs back in without a new QR scan.
type Client struct {
	log    zerolog.Logger
	wa     *whatsmeow.Client
	events chan transport.Event
	done   chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// Factory adapts NewClient to transport.Factory.
func Factory(cfg *config.Config, log zerolog.Logger) transport.Factory {
	return func(ctx context.Context) (transport.Transport, error) {
		c, err := NewClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func NewClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "whatsapp").Logger()

	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.SessionDir, "session.db"))

	container, err := sqlstore.New(ctx, "sqlite3", dsn, newLogger(log, "store"))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	return &Client{
		log:    log,
		wa:     whatsmeow.NewClient(device, newLogger(log, "client")),
		events: make(chan transport.Event, 32),
		done:   make(chan struct{}),
	}, nil
}

// Start connects. Without stored credentials it streams pairing codes until one
// is scanned or pairing times out.
func (c *Client) Start(ctx context.Context) (<-chan transport.Event, error) {
	c.wa.AddEventHandler(c.handleEvent)

	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("open QR channel: %w", err)
		}
		if err := c.wa.Connect(); err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		go c.watchQR(qrChan)
		return c.events, nil
	}

	c.log.Info().Str("jid", c.wa.Store.ID.String()).Msg("Restoring stored WhatsApp session")
	if err := c.wa.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return c.events, nil
}

func (c *Client) DefaultDomain() string {
	return types.DefaultUserServer
}

func (c *Client) Send(ctx context.Context, to string, msg transport.Message) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return errClosed
	}

	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	if jid.User == "" {
		return fmt.Errorf("invalid recipient %q: missing number", to)
	}

	var payload *waE2E.Message
	if msg.Media == nil {
		payload = &waE2E.Message{Conversation: proto.String(msg.Text)}
	} else {
		payload, err = c.mediaMessage(ctx, msg.Text, msg.Media)
		if err != nil {
			return err
		}
	}

	if _, err := c.wa.SendMessage(ctx, jid, payload); err != nil {
		return err
	}
	return nil
}

// mediaMessage uploads the attachment and builds the matching message with
// text as its caption. Types without caption support go out as documents.
func (c *Client) mediaMessage(ctx context.Context, caption string, media *transport.Media) (*waE2E.Message, error) {
	kind := mediaKind(media.MimeType)
	up, err := c.wa.Upload(ctx, media.Data, kind)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	switch kind {
	case whatsmeow.MediaImage:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(media.MimeType),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	case whatsmeow.MediaVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(media.MimeType),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	default:
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(media.MimeType),
			FileName:      proto.String(media.FileName),
			Title:         proto.String(media.FileName),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	}
}

func mediaKind(mimeType string) whatsmeow.MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return whatsmeow.MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return whatsmeow.MediaVideo
	default:
		return whatsmeow.MediaDocument
	}
}

func (c *Client) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		if ev, ok := translateQR(item); ok {
			c.emit(ev)
		}
	}
}

func (c *Client) handleEvent(evt interface{}) {
	if ev, ok := translateEvent(evt); ok {
		c.emit(ev)
	}
}

func (c *Client) emit(ev transport.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wa.Disconnect()

		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
	return nil
}
