package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/neomorfeo/kidvo/internal/domain"
)

// Compile-time check: AMQPTransport implements domain.MailTransport.
var _ domain.MailTransport = (*AMQPTransport)(nil)

// Envelope is the JSON body published for the mail renderer.
type Envelope struct {
	Template  string         `json:"template"`
	Recipient string         `json:"recipient"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

// publisher is the subset of *amqp.Channel used by the transport.
type publisher interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (publisher, func() error, error)

func dialAMQP(rawURL string) (publisher, func() error, error) {
	conn, err := amqp.Dial(rawURL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

// AMQPTransport publishes notifications to a topic exchange, routed by
// template. A separate mail service renders and sends them. The connection
// is opened lazily and reopened after a failed publish.
type AMQPTransport struct {
	url      string
	exchange string
	dial     dialFunc
	now      func() time.Time

	mu        sync.Mutex
	ch        publisher
	closeConn func() error
}

// NewAMQPTransport validates the broker URL and returns a transport. No
// connection is made until the first Send.
func NewAMQPTransport(rawURL, exchange string) (*AMQPTransport, error) {
	clean, err := sanitizeAMQPURL(rawURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		return nil, errors.New("amqp exchange must not be empty")
	}
	return &AMQPTransport{url: clean, exchange: exchange, dial: dialAMQP, now: time.Now}, nil
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parsing amqp url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("amqp url scheme must be amqp:// or amqps://")
	}
	return clean, nil
}

// Send publishes n as a persistent JSON message with routing key n.Template.
func (t *AMQPTransport) Send(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(Envelope{
		Template:  string(n.Template),
		Recipient: n.Recipient,
		Payload:   n.Payload,
		SentAt:    t.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connectLocked(); err != nil {
		return err
	}

	err = t.ch.PublishWithContext(ctx, t.exchange, string(n.Template), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    t.now().UTC(),
		Body:         body,
	})
	if err != nil {
		t.resetLocked()
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}

func (t *AMQPTransport) connectLocked() error {
	if t.ch != nil {
		return nil
	}

	ch, closeConn, err := t.dial(t.url)
	if err != nil {
		return fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	if err := ch.ExchangeDeclare(t.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = closeConn()
		return fmt.Errorf("declaring exchange %q: %w", t.exchange, err)
	}

	t.ch = ch
	t.closeConn = closeConn
	return nil
}

func (t *AMQPTransport) resetLocked() {
	if t.ch != nil {
		_ = t.ch.Close()
	}
	if t.closeConn != nil {
		_ = t.closeConn()
	}
	t.ch = nil
	t.closeConn = nil
}

// Close releases the channel and connection.
func (t *AMQPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
	return nil
}
