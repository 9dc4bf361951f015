package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"academicevents/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultDialTimeout = 2 * time.Second
	defaultRedialAfter = 10 * time.Second
	publishTimeout     = 5 * time.Second
	brokerHeartbeat    = 10 * time.Second
)

var errBrokerDown = errors.New("broker unavailable, waiting before redial")

// RabbitConfig configures a RabbitPublisher. Zero durations take the defaults.
type RabbitConfig struct {
	URL   string
	Queue string
	// Buffer is the number of jobs held while the broker is slow or down.
	Buffer int
	// DialTimeout bounds both the TCP connect and the AMQP handshake.
	DialTimeout time.Duration
	// RedialAfter is how long jobs are dropped after a failed dial.
	RedialAfter time.Duration
}

// RabbitPublisher publishes email jobs to a durable queue from a single
// background goroutine. Dispatch only enqueues, so a slow or unreachable
// broker never holds up the request that produced the job.
type RabbitPublisher struct {
	cfg    RabbitConfig
	logger *slog.Logger
	jobs   chan domain.EmailJob
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	// owned by the publishing goroutine
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// NewRabbitPublisher starts the publishing goroutine.
func NewRabbitPublisher(cfg RabbitConfig, logger *slog.Logger) *RabbitPublisher {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.RedialAfter <= 0 {
		cfg.RedialAfter = defaultRedialAfter
	}
	p := &RabbitPublisher{
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan domain.EmailJob, max(cfg.Buffer, 0)),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Dispatch enqueues job for publishing. It never waits on the broker: a full
// buffer yields ErrQueueFull.
func (p *RabbitPublisher) Dispatch(ctx context.Context, job domain.EmailJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, publishes what is buffered and releases the
// connection.
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *RabbitPublisher) run() {
	defer close(p.done)
	defer p.reset()
	for job := range p.jobs {
		if err := p.publish(job); err != nil {
			p.logger.Error("email job dropped", "template", job.Template, "to", job.To, "err", err)
		}
	}
}

func (p *RabbitPublisher) publish(job domain.EmailJob) error {
	msg, err := encodeJob(job, time.Now())
	if err != nil {
		return err
	}
	if err := p.ensureChannel(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

func (p *RabbitPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	if time.Now().Before(p.nextDial) {
		return errBrokerDown
	}
	conn, ch, err := openChannel(p.cfg.URL, p.cfg.Queue, p.cfg.DialTimeout)
	if err != nil {
		p.nextDial = time.Now().Add(p.cfg.RedialAfter)
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *RabbitPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// dialBroker connects with a deadline covering the AMQP handshake, which
// amqp.Dial leaves at 30s.
func dialBroker(url string, timeout time.Duration) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial:      amqp.DefaultDial(timeout),
		Heartbeat: brokerHeartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return conn, nil
}

func openChannel(url, queue string, timeout time.Duration) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := dialBroker(url, timeout)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}

func encodeJob(job domain.EmailJob, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal email job: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         job.Template,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func decodeJob(body []byte) (domain.EmailJob, error) {
	var job domain.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("unmarshal email job: %w", err)
	}
	if job.Template == "" || job.To == "" {
		return job, fmt.Errorf("email job missing template or recipient")
	}
	return job, nil
}
