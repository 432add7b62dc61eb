// Package mq mirrors audit events to an external broker. Publishing is
// best-effort: the audit trail of record lives in the database and a broker
// outage must never fail a login.
package mq

import (
	"context"
	"fmt"

	"github.com/hughigh/loginserver/config"
)

// Publisher delivers audit event payloads to a broker channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// NewPublisher selects a Publisher backend from config. A "none" backend
// returns nil: audit events are then recorded in the database only.
func NewPublisher(ctx context.Context, cfg config.AuditConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		return NewRabbitMQPublisher(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}
