package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"crossposter/internal/domain"
)

// ErrClosed is returned by Consume when the broker closes the delivery channel.
var ErrClosed = errors.New("delivery channel closed")

// Handler processes one reply job. Returning an error requeues the delivery.
type Handler func(ctx context.Context, job domain.ReplyJob) error

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	queue      string
	delayQueue string
	logger     zerolog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger zerolog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	// Expired messages of the delay queue are dead-lettered back onto the
	// work queue, so delayed jobs never occupy a consumer while they wait.
	dq, err := ch.QueueDeclare(
		delayQueueName(cfg.QueueName),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    cfg.Exchange,
			"x-dead-letter-routing-key": cfg.RoutingKey,
		},
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare delay queue: %w", err)
	}

	logger = logger.With().Str("component", "queue").Logger()
	logger.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.QueueName).
		Str("routing_key", cfg.RoutingKey).
		Msg("connected to rabbitmq")

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		queue:      q.Name,
		delayQueue: dq.Name,
		logger:     logger,
	}, nil
}

// EnqueueReply publishes job as a persistent JSON message. A job whose
// NotBefore lies in the future is parked on the delay queue until then.
func (r *RabbitMQ) EnqueueReply(ctx context.Context, job domain.ReplyJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal reply job: %w", err)
	}

	now := time.Now()
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    job.ID,
		Body:         body,
		Timestamp:    now,
	}

	exchange, key := r.exchange, r.routingKey
	if ttl, delayed := expiration(job, now); delayed {
		exchange, key = "", r.delayQueue
		msg.Expiration = ttl
	}

	if err := r.channel.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish reply job: %w", err)
	}

	r.logger.Debug().
		Str("job_id", job.ID).
		Str("submission", job.Submission.ID).
		Int("attempt", job.Attempt).
		Str("expiration_ms", msg.Expiration).
		Msg("enqueued reply job")

	return nil
}

// Consume delivers jobs to handler one at a time until ctx is done.
// A delivery is acknowledged only after handler returns nil.
func (r *RabbitMQ) Consume(ctx context.Context, handler Handler) error {
	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := r.channel.ConsumeWithContext(ctx, r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.queue, err)
	}

	r.logger.Info().Str("queue", r.queue).Msg("consuming reply jobs")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrClosed
			}
			if err := r.handle(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

func (r *RabbitMQ) handle(ctx context.Context, d amqp.Delivery, handler Handler) error {
	var job domain.ReplyJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		r.logger.Error().Err(err).Str("message_id", d.MessageId).Msg("dropping malformed reply job")
		return d.Nack(false, false)
	}

	if err := handler(ctx, job); err != nil {
		r.logger.Warn().Err(err).Str("job_id", job.ID).Msg("reply job not handled, requeueing")
		if nackErr := d.Nack(false, true); nackErr != nil {
			return fmt.Errorf("nack %s: %w", job.ID, nackErr)
		}
		return ctx.Err()
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("ack %s: %w", job.ID, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func delayQueueName(queue string) string {
	return queue + ".delay"
}

// expiration returns the per-message TTL in milliseconds for a job that is
// not yet due. RabbitMQ only expires messages at the head of a queue, so
// delays are expected to be non-decreasing in publish order.
func expiration(job domain.ReplyJob, now time.Time) (string, bool) {
	wait := job.NotBefore.Sub(now)
	if job.NotBefore.IsZero() || wait <= 0 {
		return "", false
	}
	ms := (wait + time.Millisecond - 1) / time.Millisecond
	return strconv.FormatInt(int64(ms), 10), true
}
