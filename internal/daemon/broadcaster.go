package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/A1i98/obsidian-digital-garden/internal/config"
	"github.com/A1i98/obsidian-digital-garden/internal/logfields"
)

const (
	broadcastTimeout  = 5 * time.Second
	streamInitTimeout = 10 * time.Second
)

// PublishEvent is the JetStream message body emitted after every publish
// run, successful or not. Subscribers use it to mirror the garden state or
// alert on failures.
type PublishEvent struct {
	SessionID string    `json:"session_id"`
	Trigger   string    `json:"trigger"`
	Success   bool      `json:"success"`
	Pushed    bool      `json:"pushed"`
	CommitSHA string    `json:"commit_sha,omitempty"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster publishes run outcomes to a NATS JetStream stream. A nil
// Broadcaster is valid and broadcasts nothing, so the daemon can treat the
// NATS integration as optional.
type Broadcaster struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	stream  string
	subject string
}

// NewBroadcaster connects to NATS and ensures the configured stream exists.
func NewBroadcaster(cfg *config.NATSConfig) (*Broadcaster, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	b := &Broadcaster{conn: conn, js: js, stream: cfg.Stream, subject: cfg.Subject}
	if err := b.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("Connected to NATS", logfields.URL(cfg.URL), logfields.Name(cfg.Stream))
	return b, nil
}

func (b *Broadcaster) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), streamInitTimeout)
	defer cancel()

	_, err := b.js.Stream(ctx, b.stream)
	if err == nil {
		return nil
	}

	_, err = b.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     b.stream,
		Subjects: []string{b.subject},
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", b.stream, err)
	}
	return nil
}

// Broadcast publishes the event to the configured subject. The event's
// timestamp is stamped here so callers do not have to.
func (b *Broadcaster) Broadcast(event PublishEvent) error {
	if b == nil {
		return nil
	}

	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal publish event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	if _, err := b.js.Publish(ctx, b.subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", b.subject, err)
	}

	slog.Debug("Broadcast publish event", logfields.SessionID(event.SessionID), slog.String("subject", b.subject))
	return nil
}

// Close closes the NATS connection. Safe to call on a nil Broadcaster.
func (b *Broadcaster) Close() {
	if b == nil {
		return
	}
	b.conn.Close()
}
