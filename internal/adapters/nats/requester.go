package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/perimap/internal/core/domain"
)

// Requester sends interactions to whichever API instance holds the queue
// subscription and waits for the outcome.
type Requester struct {
	conn *nats.Conn
}

// NewRequester creates a requester sharing a NATS connection.
func NewRequester(conn *nats.Conn) *Requester {
	return &Requester{conn: conn}
}

// Send publishes in on its session's interaction subject and blocks until
// the reply arrives or ctx is done.
func (r *Requester) Send(ctx context.Context, in *domain.Interaction) error {
	if in.SessionID == "" {
		return errors.New("interaction has no session id")
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	msg, err := r.conn.RequestWithContext(ctx, InteractionSubjectFor(in.SessionID), data)
	if err != nil {
		return fmt.Errorf("nats request: %w", err)
	}
	return parseReply(msg.Data)
}

type replyBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func parseReply(data []byte) error {
	var r replyBody
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("malformed reply: %w", err)
	}
	if !r.OK {
		return errors.New(r.Error)
	}
	return nil
}
