package awsutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sprucehealth/mediaindexer/libs/conc"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

const maxVisibilityTimeout = 12 * time.Hour

// SQSHandler processes the body of one delivery and decides what happens to the message.
type SQSHandler func(ctx context.Context, body string) worker.Outcome

// SQSWorker is a worker that processes messages from SQS. Only messages whose handler
// returns worker.Ack (or worker.Escalate) are deleted. Everything else becomes visible again
// once its visibility timeout expires and is redelivered.
type SQSWorker struct {
	started uint32
	sqsAPI  sqsiface.SQSAPI
	sqsURL  string
	handler SQSHandler

	visibilityTimeout time.Duration
	retryDelay        time.Duration
	waitTime          time.Duration
	deadLetterURL     string
	outcomes          *worker.OutcomeCounters

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ worker.Worker = &SQSWorker{}

// SQSWorkerOption configures an SQSWorker.
type SQSWorkerOption func(*SQSWorker)

// WithVisibilityTimeout sets how long a received message stays hidden while being processed.
func WithVisibilityTimeout(d time.Duration) SQSWorkerOption {
	return func(w *SQSWorker) { w.visibilityTimeout = d }
}

// WithRetryDelay sets the backoff before a message whose handler returned RetryLater is
// redelivered. Zero leaves the visibility timeout in charge.
func WithRetryDelay(d time.Duration) SQSWorkerOption {
	return func(w *SQSWorker) { w.retryDelay = d }
}

// WithDeadLetterQueue sets the queue escalated messages are moved to.
func WithDeadLetterQueue(url string) SQSWorkerOption {
	return func(w *SQSWorker) { w.deadLetterURL = url }
}

// WithOutcomeCounters sets the counters every delivery's outcome is recorded in.
func WithOutcomeCounters(c *worker.OutcomeCounters) SQSWorkerOption {
	return func(w *SQSWorker) { w.outcomes = c }
}

// WithWaitTime sets the long poll duration of ReceiveMessage.
func WithWaitTime(d time.Duration) SQSWorkerOption {
	return func(w *SQSWorker) { w.waitTime = d }
}

// NewSQSWorker returns a worker that consumes SQS messages
// and passes them through the provided handler
func NewSQSWorker(sqsAPI sqsiface.SQSAPI, sqsURL string, handler SQSHandler, opts ...SQSWorkerOption) *SQSWorker {
	w := &SQSWorker{
		sqsAPI:            sqsAPI,
		sqsURL:            sqsURL,
		handler:           handler,
		visibilityTimeout: 5 * time.Minute,
		waitTime:          20 * time.Second,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Started returns true iff the worker is currently running
func (w *SQSWorker) Started() bool {
	return atomic.LoadUint32(&w.started) != 0
}

// Start starts the worker consuming messages if it's not already doing so.
func (w *SQSWorker) Start() {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()
	conc.Go(func() {
		defer close(done)
		defer atomic.StoreUint32(&w.started, 0)
		for ctx.Err() == nil {
			w.receive(ctx)
		}
	})
}

// Stop signals the worker to stop waiting up to wait for the current message to finish.
func (w *SQSWorker) Stop(wait time.Duration) {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(wait):
	}
}

func (w *SQSWorker) receive(ctx context.Context) {
	res, err := w.sqsAPI.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.sqsURL),
		MaxNumberOfMessages: aws.Int64(1),
		VisibilityTimeout:   aws.Int64(seconds(w.visibilityTimeout)),
		WaitTimeSeconds:     aws.Int64(seconds(w.waitTime)),
		AttributeNames:      []*string{aws.String(sqs.MessageSystemAttributeNameApproximateReceiveCount)},
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		golog.Errorf("Failed to receive message from %s: %s", w.sqsURL, err)
		// Avoid a hot loop when the queue is unreachable.
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	for _, m := range res.Messages {
		// Finish the message even if Stop was called so the outcome is applied.
		w.processMessage(context.Background(), m)
	}
}

func (w *SQSWorker) processMessage(ctx context.Context, m *sqs.Message) {
	log := golog.Context(
		"queue", w.sqsURL,
		"message_id", aws.StringValue(m.MessageId),
		"receive_count", aws.StringValue(m.Attributes[sqs.MessageSystemAttributeNameApproximateReceiveCount]))
	ctx = golog.WithLogger(ctx, log)

	outcome := w.handler(ctx, aws.StringValue(m.Body))
	log.Debugf("Message outcome %s", outcome)
	w.outcomes.Record(outcome)
	switch outcome {
	case worker.Ack:
		w.deleteMessage(ctx, log, m)
	case worker.RetryLater:
		if w.retryDelay <= 0 {
			return
		}
		if _, err := w.sqsAPI.ChangeMessageVisibilityWithContext(ctx, &sqs.ChangeMessageVisibilityInput{
			QueueUrl:          aws.String(w.sqsURL),
			ReceiptHandle:     m.ReceiptHandle,
			VisibilityTimeout: aws.Int64(seconds(w.retryDelay)),
		}); err != nil {
			// The original visibility timeout still applies so the message is redelivered anyway.
			log.Errorf("Failed to change message visibility: %s", err)
		}
	case worker.Escalate:
		if w.deadLetterURL == "" {
			log.Criticalf("Dropping message that cannot be processed: %s", aws.StringValue(m.Body))
			w.deleteMessage(ctx, log, m)
			return
		}
		if _, err := w.sqsAPI.SendMessageWithContext(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(w.deadLetterURL),
			MessageBody: m.Body,
			MessageAttributes: map[string]*sqs.MessageAttributeValue{
				"SourceQueue": {DataType: aws.String("String"), StringValue: aws.String(w.sqsURL)},
			},
		}); err != nil {
			// Leave it on the queue; the next delivery escalates it again.
			log.Errorf("Failed to move message to dead letter queue %s: %s", w.deadLetterURL, err)
			return
		}
		log.Criticalf("Moved message to dead letter queue %s", w.deadLetterURL)
		w.deleteMessage(ctx, log, m)
	default:
		log.Criticalf("Unknown handler outcome %d, leaving message for redelivery", int(outcome))
	}
}

func (w *SQSWorker) deleteMessage(ctx context.Context, log golog.Logger, m *sqs.Message) {
	if _, err := w.sqsAPI.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.sqsURL),
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		log.Errorf("Failed to delete message: %s", err)
	}
}

func seconds(d time.Duration) int64 {
	if d > maxVisibilityTimeout {
		d = maxVisibilityTimeout
	}
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
