package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// Subjects. Session events are published on core NATS only; nothing is
// retained by the broker.
const (
	SessionSubjectPrefix = "perimap.session."
	InteractionSubject   = "perimap.interactions.>"
	interactionPrefix    = "perimap.interactions."
	interactionQueue     = "perimap-api"
)

// SessionSubject is the subject carrying every event of one session.
func SessionSubject(sessionID string) string {
	return SessionSubjectPrefix + sessionID
}

// InteractionSubjectFor is the subject a client publishes interactions on.
func InteractionSubjectFor(sessionID string) string {
	return interactionPrefix + sessionID
}

// Publisher implements ports.EventPublisher using core NATS.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(SessionSubject(event.SessionID), data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("perimap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
