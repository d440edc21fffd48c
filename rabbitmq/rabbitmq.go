package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/fundhub/fundhub.go/lib/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool reuses encoding buffers across publishes. Sequential publishing
// keeps a single buffer alive; concurrent callers scale the pool with them.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const contentTypeJSON = "application/json"

// Publisher forwards audit entries to an AMQP topic exchange. It satisfies
// service.AuditSink; publish failures are returned to the service which
// logs and swallows them.
type Publisher struct {
	conn           *amqp.Connection
	publishChannel *amqp.Channel

	logger *lecho.Logger

	auditExchange string
}

type PublisherOption = func(p *Publisher)

func WithAuditExchange(exchange string) PublisherOption {
	return func(p *Publisher) {
		p.auditExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Dial connects to rabbitmq and declares the audit exchange. The initial
// connection is retried with exponential backoff, brokers tend to come up
// slower than this service.
func Dial(uri string, options ...PublisherOption) (*Publisher, error) {
	p := &Publisher{
		auditExchange: "fundhub_audit",
	}
	for _, opt := range options {
		opt(p)
	}

	err := backoff.Retry(func() error {
		conn, err := amqp.Dial(uri)
		if err != nil {
			if p.logger != nil {
				p.logger.Errorf("Failed to connect to rabbitmq, retrying: %v", err)
			}
			return err
		}
		p.conn = conn
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		return nil, err
	}

	p.publishChannel, err = p.conn.Channel()
	if err != nil {
		p.conn.Close()
		return nil, err
	}

	err = p.publishChannel.ExchangeDeclare(
		p.auditExchange,
		// topic exchange, routing key is "<entity_type>.<action>"
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// Close will close all connections to rabbitmq
func (p *Publisher) Close() error {
	if p.publishChannel != nil {
		p.publishChannel.Close()
	}
	return p.conn.Close()
}

func (p *Publisher) Log(ctx context.Context, entry service.AuditEntry) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := json.NewEncoder(payload).Encode(entry); err != nil {
		return err
	}

	key := entry.EntityType + "." + entry.Action
	return p.publishChannel.PublishWithContext(ctx,
		p.auditExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        payload.Bytes(),
		},
	)
}

var _ service.AuditSink = (*Publisher)(nil)
