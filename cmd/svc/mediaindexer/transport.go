package main

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/service/sqs"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/mediaindexer/boot"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/queue"
	"github.com/sprucehealth/mediaindexer/libs/awsutil"
	"github.com/sprucehealth/mediaindexer/libs/clock"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// transport wires the pipeline handlers to one queue technology.
type transport struct {
	publisher queue.Publisher
	workers   *worker.Collection
	// newWorker returns a consumer of the named queue.
	newWorker       func(name string, h queue.Handler, outcomes *worker.OutcomeCounters) (worker.Worker, error)
	close           func()
	n               int
	metricsRegistry metrics.Registry
	// memQueue returns the named in-process queue. Only set for the memory transport.
	memQueue func(name string) *queue.MemQueue
}

// consume adds n consumers of the queue to the collection. They share one set of outcome
// counters scoped by queue name.
func (t *transport) consume(name string, h queue.Handler) error {
	outcomes := worker.NewOutcomeCounters(t.metricsRegistry.Scope("queue." + name))
	for i := 0; i < t.n; i++ {
		w, err := t.newWorker(name, h, outcomes)
		if err != nil {
			return err
		}
		t.workers.AddWorker(w)
	}
	return nil
}

func newTransport(svc *boot.Service) (*transport, error) {
	switch config.queue {
	case "sqs":
		return newSQSTransport(svc)
	case "rabbitmq":
		return newRabbitTransport(svc.MetricsRegistry)
	case "memory":
		return newMemTransport(clock.New(), config.progressQueue, config.workers, config.visibilityTimeout, config.retryDelay, svc.MetricsRegistry), nil
	}
	return nil, errors.Errorf("unknown queue transport %q", config.queue)
}

func newSQSTransport(svc *boot.Service) (*transport, error) {
	awsSession, err := svc.AWSSession()
	if err != nil {
		return nil, errors.Trace(err)
	}
	sqsAPI := sqs.New(awsSession)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	progressURL, err := queue.ResolveSQSURL(ctx, sqsAPI, config.progressQueue)
	if err != nil {
		return nil, err
	}
	deadLetterURL, err := queue.ResolveSQSURL(ctx, sqsAPI, config.deadLetterQueue)
	if err != nil {
		return nil, err
	}
	return &transport{
		publisher:       queue.NewSQSPublisher(sqsAPI, progressURL),
		workers:         &worker.Collection{},
		n:               config.workers,
		metricsRegistry: svc.MetricsRegistry,
		close:           func() {},
		newWorker: func(name string, h queue.Handler, outcomes *worker.OutcomeCounters) (worker.Worker, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			u, err := queue.ResolveSQSURL(ctx, sqsAPI, name)
			if err != nil {
				return nil, err
			}
			return awsutil.NewSQSWorker(sqsAPI, u, awsutil.SQSHandler(h),
				awsutil.WithVisibilityTimeout(config.visibilityTimeout),
				awsutil.WithRetryDelay(config.retryDelay),
				awsutil.WithDeadLetterQueue(deadLetterURL),
				awsutil.WithOutcomeCounters(outcomes)), nil
		},
	}, nil
}

func newRabbitTransport(metricsRegistry metrics.Registry) (*transport, error) {
	conn, err := amqp.Dial(config.rabbitMQURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RabbitMQ")
	}
	pub, err := queue.NewRabbitPublisher(conn, config.progressQueue, config.retryDelay)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &transport{
		publisher:       pub,
		workers:         &worker.Collection{},
		n:               config.workers,
		metricsRegistry: metricsRegistry,
		close: func() {
			if err := conn.Close(); err != nil {
				golog.Warningf("Failed to close RabbitMQ connection: %s", err)
			}
		},
		newWorker: func(name string, h queue.Handler, outcomes *worker.OutcomeCounters) (worker.Worker, error) {
			return queue.NewRabbitWorker(conn, name, config.retryDelay, h, outcomes)
		},
	}, nil
}

// newMemTransport runs every queue in process. Escalated messages go to a shared dead letter
// queue named dead-letter.
func newMemTransport(clk clock.Clock, progressQueue string, n int, visibility, retryDelay time.Duration, metricsRegistry metrics.Registry) *transport {
	queues := make(map[string]*queue.MemQueue)
	get := func(name string) *queue.MemQueue {
		q := queues[name]
		if q == nil {
			q = queue.NewMemQueue(name, clk, visibility)
			queues[name] = q
		}
		return q
	}
	dead := get("dead-letter")
	return &transport{
		memQueue:        get,
		publisher:       get(progressQueue),
		workers:         &worker.Collection{},
		n:               n,
		metricsRegistry: metricsRegistry,
		close:           func() {},
		newWorker: func(name string, h queue.Handler, outcomes *worker.OutcomeCounters) (worker.Worker, error) {
			return queue.NewMemWorker(get(name), dead, h, retryDelay, outcomes), nil
		},
	}
}
