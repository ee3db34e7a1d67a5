package queue

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/conc"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

const retryCountHeader = "x-retry-count"

// RetryQueue is the queue holding messages waiting out their backoff.
func RetryQueue(queue string) string {
	return queue + ".retry"
}

// DeadQueue is the queue escalated messages end up in.
func DeadQueue(queue string) string {
	return queue + ".dead"
}

// DeclareTopology declares queue together with its retry and dead letter queues on the
// default exchange. Rejected messages dead letter into the dead queue. Messages in the retry
// queue expire after retryDelay and dead letter back into queue.
func DeclareTopology(ch *amqp.Channel, queue string, retryDelay time.Duration) error {
	if retryDelay <= 0 {
		return errors.Errorf("retry delay must be positive for queue %s", queue)
	}
	if _, err := ch.QueueDeclare(DeadQueue(queue), true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "failed to declare %s", DeadQueue(queue))
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": DeadQueue(queue),
	}); err != nil {
		return errors.Wrapf(err, "failed to declare %s", queue)
	}
	if _, err := ch.QueueDeclare(RetryQueue(queue), true, false, false, false, amqp.Table{
		"x-message-ttl":             int64(retryDelay / time.Millisecond),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue,
	}); err != nil {
		return errors.Wrapf(err, "failed to declare %s", RetryQueue(queue))
	}
	return nil
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitPublisher publishes events to a RabbitMQ queue through the default exchange.
type RabbitPublisher struct {
	mu    sync.Mutex
	ch    amqpPublisher
	queue string
}

// NewRabbitPublisher opens a channel on conn and declares the queue topology.
func NewRabbitPublisher(conn *amqp.Connection, queue string, retryDelay time.Duration) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := DeclareTopology(ch, queue, retryDelay); err != nil {
		ch.Close()
		return nil, err
	}
	return &RabbitPublisher{ch: ch, queue: queue}, nil
}

// Publish sends the serialized event as a persistent message.
func (p *RabbitPublisher) Publish(ctx context.Context, ev *progress.Event) error {
	body, err := ev.Encode()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(ev.Kind),
		Timestamp:    time.Now(),
		Body:         body,
	})
	return errors.Wrapf(err, "failed to publish %s event to %s", ev.Kind, p.queue)
}

// RabbitWorker consumes a RabbitMQ queue. RetryLater republishes the message to the retry
// queue before acking so it comes back after the queue's TTL.
type RabbitWorker struct {
	started  uint32
	conn     *amqp.Connection
	queue    string
	handler  Handler
	outcomes *worker.OutcomeCounters

	mu     sync.Mutex
	ch     *amqp.Channel
	tag    string
	cancel context.CancelFunc
	done   chan struct{}
}

var _ worker.Worker = &RabbitWorker{}

// NewRabbitWorker declares the topology and returns a worker passing deliveries to handler.
// outcomes may be nil.
func NewRabbitWorker(conn *amqp.Connection, queue string, retryDelay time.Duration, handler Handler, outcomes *worker.OutcomeCounters) (*RabbitWorker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer ch.Close()
	if err := DeclareTopology(ch, queue, retryDelay); err != nil {
		return nil, err
	}
	return &RabbitWorker{conn: conn, queue: queue, handler: handler, outcomes: outcomes}, nil
}

func (w *RabbitWorker) Started() bool {
	return atomic.LoadUint32(&w.started) != 0
}

func (w *RabbitWorker) Start() {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return
	}
	ch, err := w.conn.Channel()
	if err != nil {
		golog.Errorf("Failed to open channel for %s: %s", w.queue, err)
		atomic.StoreUint32(&w.started, 0)
		return
	}
	if err := ch.Qos(1, 0, false); err != nil {
		golog.Errorf("Failed to set QoS for %s: %s", w.queue, err)
	}
	tag := "mediaindexer-" + uuid.NewString()
	deliveries, err := ch.Consume(w.queue, tag, false, false, false, false, nil)
	if err != nil {
		golog.Errorf("Failed to consume %s: %s", w.queue, err)
		ch.Close()
		atomic.StoreUint32(&w.started, 0)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.mu.Lock()
	w.ch, w.tag, w.cancel, w.done = ch, tag, cancel, done
	w.mu.Unlock()

	conc.Go(func() {
		defer close(done)
		defer atomic.StoreUint32(&w.started, 0)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					golog.Warningf("RabbitMQ deliveries closed for %s", w.queue)
					return
				}
				handleDelivery(context.Background(), ch, w.queue, w.handler, w.outcomes, d)
			}
		}
	})
}

func (w *RabbitWorker) Stop(wait time.Duration) {
	w.mu.Lock()
	ch, tag, cancel, done := w.ch, w.tag, w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	// Stop new deliveries first. Unacked ones are requeued by the broker when the channel closes.
	if err := ch.Cancel(tag, false); err != nil {
		golog.Warningf("Failed to cancel consumer %s: %s", tag, err)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(wait):
	}
}

func handleDelivery(ctx context.Context, pub amqpPublisher, queue string, handler Handler, outcomes *worker.OutcomeCounters, d amqp.Delivery) {
	retries, _ := strconv.Atoi(headerString(d.Headers, retryCountHeader))
	log := golog.Context("queue", queue, "message_id", d.MessageId, "retries", retries)
	ctx = golog.WithLogger(ctx, log)

	outcome := handler(ctx, string(d.Body))
	log.Debugf("Message outcome %s", outcome)
	outcomes.Record(outcome)
	switch outcome {
	case worker.Ack:
		if err := d.Ack(false); err != nil {
			log.Errorf("Failed to ack: %s", err)
		}
	case worker.RetryLater:
		headers := amqp.Table{}
		for k, v := range d.Headers {
			headers[k] = v
		}
		headers[retryCountHeader] = strconv.Itoa(retries + 1)
		if err := pub.PublishWithContext(ctx, "", RetryQueue(queue), false, false, amqp.Publishing{
			Headers:      headers,
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Type:         d.Type,
			Timestamp:    d.Timestamp,
			Body:         d.Body,
		}); err != nil {
			log.Errorf("Failed to publish to retry queue, requeueing: %s", err)
			if err := d.Nack(false, true); err != nil {
				log.Errorf("Failed to nack: %s", err)
			}
			return
		}
		if err := d.Ack(false); err != nil {
			log.Errorf("Failed to ack: %s", err)
		}
	case worker.Escalate:
		log.Criticalf("Moving message to %s", DeadQueue(queue))
		if err := d.Nack(false, false); err != nil {
			log.Errorf("Failed to nack: %s", err)
		}
	default:
		log.Criticalf("Unknown handler outcome %d, requeueing", int(outcome))
		if err := d.Nack(false, true); err != nil {
			log.Errorf("Failed to nack: %s", err)
		}
	}
}

func headerString(h amqp.Table, key string) string {
	switch v := h[key].(type) {
	case string:
		return v
	case int32:
		return strconv.Itoa(int(v))
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}
