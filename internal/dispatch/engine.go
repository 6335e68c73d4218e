// Package dispatch sends one message to many recipients over the messaging
// session.
//
// A batch is sequential: recipients are attempted in input order with a fixed
// pause between attempts, a failed recipient is recorded and skipped, and the
// batch always runs to completion once started. Readiness is checked once up
// front; a session that drops mid-batch makes the remaining sends fail
// individually.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"whatsapp-relay/internal/errs"
	"whatsapp-relay/internal/models"
	"whatsapp-relay/internal/templating"
	"whatsapp-relay/internal/transport"

	"github.com/rs/zerolog"
)

// Session is the part of the session manager the engine needs.
type Session interface {
	IsSendable() bool
	LastError() string
	DefaultDomain() string
	Send(ctx context.Context, to string, msg transport.Message) error
}

type TemplateSource interface {
	Get(ctx context.Context, id int64) (models.Template, error)
}

// Observer receives batch progress, e.g. to push it to browsers.
type Observer interface {
	NotifyBatch(data interface{})
}

type Options struct {
	// Interval is the pause between two consecutive attempts of a batch.
	Interval time.Duration
	// DemoDelay is how long a simulated send takes.
	DemoDelay time.Duration
}

type Engine struct {
	session   Session
	templates TemplateSource
	observer  Observer
	opts      Options
	log       zerolog.Logger

	// wait is swapped in tests.
	wait func(ctx context.Context, d time.Duration) error

	lastMu sync.Mutex
	last   *batch
}

func NewEngine(session Session, templates TemplateSource, observer Observer, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		session:   session,
		templates: templates,
		observer:  observer,
		opts:      opts,
		log:       log.With().Str("component", "dispatch").Logger(),
		wait:      sleep,
	}
}

type SingleRequest struct {
	// Phone is a comma separated recipient list.
	Phone      string
	Message    string
	TemplateID *int64
	// Variables are applied to the template once for every recipient alike.
	Variables  map[string]string
	Attachment *Attachment
}

type BulkRecipient struct {
	Phone     string            `json:"phone"`
	Variables map[string]string `json:"variables"`
}

type job struct {
	phone string
	msg   transport.Message
}

// SendSingle sends the same content to every recipient in req.Phone.
func (e *Engine) SendSingle(ctx context.Context, req SingleRequest) (*BatchResult, error) {
	if req.Attachment != nil {
		defer e.release(req.Attachment)
	}
	if err := e.ready(); err != nil {
		return nil, err
	}

	content := req.Message
	if req.TemplateID != nil {
		tmpl, err := e.template(ctx, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		content = templating.Render(tmpl, req.Variables)
	}

	var media *transport.Media
	if req.Attachment != nil {
		m, err := req.Attachment.load()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrInternal, err)
		}
		media = m
	}

	recipients := ParseRecipients(req.Phone)
	jobs := make([]job, 0, len(recipients))
	for _, phone := range recipients {
		jobs = append(jobs, job{phone: phone, msg: transport.Message{Text: content, Media: media}})
	}
	return e.run(ctx, jobs), nil
}

// SendBulkFromTemplate renders the template separately for every recipient
// with that recipient's own variables.
func (e *Engine) SendBulkFromTemplate(ctx context.Context, templateID int64, recipients []BulkRecipient) (*BatchResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	tmpl, err := e.template(ctx, templateID)
	if err != nil {
		return nil, err
	}

	jobs := make([]job, 0, len(recipients))
	for _, r := range recipients {
		jobs = append(jobs, job{phone: r.Phone, msg: transport.Message{Text: templating.Render(tmpl, r.Variables)}})
	}
	return e.run(ctx, jobs), nil
}

// Demo simulates a send without touching the session.
func (e *Engine) Demo(ctx context.Context, phone string) (*BatchResult, error) {
	if err := e.wait(ctx, e.opts.DemoDelay); err != nil {
		return nil, err
	}
	b := e.begin(1)
	b.record(OutcomeDemoSent)
	b.finish()
	e.publish(b)
	return &BatchResult{
		ID:      b.id,
		Results: []RecipientResult{{Phone: phone, Status: OutcomeDemoSent}},
		Stats:   b.snapshot(),
	}, nil
}

// LastStats returns the counters of the most recently started batch.
func (e *Engine) LastStats() Stats {
	e.lastMu.Lock()
	b := e.last
	e.lastMu.Unlock()
	if b == nil {
		return Stats{}
	}
	return b.snapshot()
}

func (e *Engine) ready() error {
	if e.session.IsSendable() {
		return nil
	}
	return &errs.NotReadyError{LastError: e.session.LastError()}
}

func (e *Engine) template(ctx context.Context, id int64) (models.Template, error) {
	tmpl, err := e.templates.Get(ctx, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return models.Template{}, fmt.Errorf("%w: id %d", errs.ErrTemplateNotFound, id)
	case err != nil:
		return models.Template{}, fmt.Errorf("%w: load template %d: %v", errs.ErrInternal, id, err)
	}
	return tmpl, nil
}

func (e *Engine) begin(total int) *batch {
	b := newBatch(total)
	e.lastMu.Lock()
	e.last = b
	e.lastMu.Unlock()
	return b
}

func (e *Engine) run(ctx context.Context, jobs []job) *BatchResult {
	// A batch is not cancellable once started, not even by the caller going away.
	ctx = context.WithoutCancel(ctx)

	b := e.begin(len(jobs))
	log := e.log.With().Str("batch", b.id).Logger()
	log.Info().Int("total", len(jobs)).Msg("batch started")
	start := time.Now()

	domain := e.session.DefaultDomain()
	results := make([]RecipientResult, 0, len(jobs))
	for i, j := range jobs {
		res := RecipientResult{Phone: j.phone, Status: OutcomeSent}
		if err := e.sendOne(ctx, NormalizeAddress(j.phone, domain), j.msg); err != nil {
			res.Status = OutcomeFailed
			res.Error = err.Error()
			log.Warn().Err(fmt.Errorf("%w: %w", errs.ErrRecipientSendFailed, err)).Str("phone", j.phone).Msg("Failed to send")
		}
		b.record(res.Status)
		results = append(results, res)
		e.publish(b)

		if i < len(jobs)-1 {
			_ = e.wait(ctx, e.opts.Interval)
		}
	}

	b.finish()
	e.publish(b)

	stats := b.snapshot()
	evt := log.Info()
	if stats.Failed > 0 {
		evt = log.Warn()
	}
	evt.Int("total", stats.Total).Int("sent", stats.Sent).Int("failed", stats.Failed).
		Dur("took", time.Since(start)).Msg("batch finished")

	return &BatchResult{ID: b.id, Results: results, Stats: stats}
}

// sendOne never lets a recipient's failure, including a panic in the
// transport, escape the batch loop.
func (e *Engine) sendOne(ctx context.Context, to string, msg transport.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return e.session.Send(ctx, to, msg)
}

func (e *Engine) publish(b *batch) {
	if e.observer != nil {
		e.observer.NotifyBatch(b.progress())
	}
}

func (e *Engine) release(a *Attachment) {
	if err := a.Release(); err != nil {
		e.log.Error().Err(err).Str("path", a.Path).Msg("failed to remove uploaded attachment")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
