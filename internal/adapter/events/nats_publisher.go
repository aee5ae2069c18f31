package events

import (
	"context"
	"encoding/json"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NatsPublisher implements ports.EventPublisher over NATS. Publishing is
// best-effort: failures are logged and never propagated, so a broker outage
// cannot affect ledger commits.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// transactionEvent is the wire shape announced after every commit.
type transactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	SenderID      *string   `json:"sender_id,omitempty"`
	RecipientID   string    `json:"recipient_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewNatsPublisher connects to the broker and returns a publisher. A
// connection failure is returned to the caller; the service decides whether
// to run without events.
func NewNatsPublisher(cfg config.EventsConfig, log zerolog.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.URL).Str("subject", cfg.Subject).Msg("NATS connection established")

	return &NatsPublisher{
		conn:    conn,
		subject: cfg.Subject,
		log:     log.With().Str("component", "nats_publisher").Logger(),
	}, nil
}

// PublishTransaction announces a committed ledger record.
func (p *NatsPublisher) PublishTransaction(_ context.Context, t *domain.Transaction) {
	evt := transactionEvent{
		TransactionID: t.ID.String(),
		Kind:          string(t.Kind),
		RecipientID:   t.RecipientID.String(),
		Amount:        t.Amount,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
	if t.SenderID != nil {
		s := t.SenderID.String()
		evt.SenderID = &s
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error().Err(err).Msg("Marshal transaction event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.log.Warn().Err(err).
			Str("transaction_id", evt.TransactionID).
			Msg("Publish transaction event failed")
	}
}

// Close drains and closes the broker connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.log.Warn().Err(err).Msg("NATS drain failed")
	}
}

// NoopPublisher is used when the events broker is not configured.
type NoopPublisher struct{}

// PublishTransaction does nothing.
func (NoopPublisher) PublishTransaction(context.Context, *domain.Transaction) {}
