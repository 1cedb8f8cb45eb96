package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using a core NATS queue
// group, so each interaction is applied by exactly one API instance.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// DecodeInteraction parses an interaction message. The session ID falls
// back to the last subject token when the payload omits it.
func DecodeInteraction(subject string, data []byte) (*domain.Interaction, error) {
	var in domain.Interaction
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	if in.SessionID == "" {
		in.SessionID = strings.TrimPrefix(subject, interactionPrefix)
	}
	return &in, nil
}

func (s *Subscriber) SubscribeInteractions(ctx context.Context, handler func(ctx context.Context, in *domain.Interaction) error) error {
	sub, err := s.conn.QueueSubscribe(InteractionSubject, interactionQueue, func(msg *nats.Msg) {
		in, err := DecodeInteraction(msg.Subject, msg.Data)
		if err != nil {
			slog.Warn("dropping malformed interaction", "subject", msg.Subject, "error", err)
			reply(msg, err)
			return
		}
		if err := handler(ctx, in); err != nil {
			slog.Warn("interaction rejected", "session_id", in.SessionID, "type", in.Type, "error", err)
			reply(msg, err)
			return
		}
		reply(msg, nil)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// reply answers request/reply callers with the outcome.
func reply(msg *nats.Msg, err error) {
	if msg.Reply == "" {
		return
	}
	body := []byte(`{"ok":true}`)
	if err != nil {
		body, _ = json.Marshal(map[string]any{"ok": false, "error": err.Error()})
	}
	_ = msg.Respond(body)
}

// Close unsubscribes.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
