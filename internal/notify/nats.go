// Package notify forwards engine events to external subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"fakeartist/internal/domain"
)

// DefaultSubjectPrefix is prepended to every published subject
const DefaultSubjectPrefix = "fakeartist"

// NATSConfig holds the connection settings for the NATS publisher
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns reconnect-forever defaults against the local server
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: DefaultSubjectPrefix,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// msgPublisher is the part of *nats.Conn the publisher uses
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATS publishes each event as JSON on <prefix>.session.<sessionID>
type NATS struct {
	conn   msgPublisher
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// ConnectNATS dials the server and returns a publisher owning the connection
func ConnectNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("fakeartist"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS error", "error", err)
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	p := newNATS(nc, cfg.SubjectPrefix, logger)
	p.nc = nc
	return p, nil
}

func newNATS(conn msgPublisher, prefix string, logger *slog.Logger) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject events of a session are published on
func (p *NATS) Subject(sessionID string) string {
	return fmt.Sprintf("%s.session.%s", p.prefix, sessionID)
}

// Publish sends the event. Per-participant events are skipped because they
// can carry the secret word.
func (p *NATS) Publish(_ context.Context, event *domain.Event) error {
	if event.Type == domain.EventParticipantChanged {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event.SessionID),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(event.Type)},
			"Session-ID": []string{event.SessionID},
		},
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close drains the connection if the publisher owns one
func (p *NATS) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
