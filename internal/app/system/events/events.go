// Package events publishes ledger events to NATS after a transaction commits.
// A nil *Publisher is valid and drops every event, so deployments without
// a broker need no special casing.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event types, also used as subject suffixes.
const (
	DisciplineIssued = "discipline.issued"
	MeritAwarded     = "merit.awarded"
	PaymentRecorded  = "payment.recorded"
)

// Event is the envelope published for every ledger write.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	SchoolID   string    `json:"school_id"`
	StudentID  string    `json:"student_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// New builds an event with a fresh id.
func New(typ, schoolID, studentID, actorID string, at time.Time, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		SchoolID:   schoolID,
		StudentID:  studentID,
		ActorID:    actorID,
		OccurredAt: at,
		Data:       data,
	}
}

// Publisher sends events to NATS subjects of the form <prefix>.<type>.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

// Connect dials NATS. The connection reconnects forever in the background.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("mwanacheck"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	logger.Info("NATS publisher initialized", zap.String("url", url), zap.String("prefix", prefix))
	return &Publisher{nc: nc, prefix: strings.TrimSuffix(prefix, "."), log: logger}, nil
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(typ string) string {
	if p == nil || p.prefix == "" {
		return typ
	}
	return p.prefix + "." + typ
}

// Publish sends evt. The event id goes in the Nats-Msg-Id header so a
// JetStream consumer can deduplicate.
func (p *Publisher) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.nc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}

	msg := nats.NewMsg(p.Subject(evt.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, evt.ID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("nats drain failed", zap.Error(err))
		p.nc.Close()
	}
}
