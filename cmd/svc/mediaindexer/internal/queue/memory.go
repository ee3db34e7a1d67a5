package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/clock"
	"github.com/sprucehealth/mediaindexer/libs/conc"
	"github.com/sprucehealth/mediaindexer/libs/golog"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// MemMessage is a message received from a MemQueue.
type MemMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
	ReceiveCount  int
}

type memMessage struct {
	MemMessage
	visibleAt time.Time
}

// MemQueue is an in-process queue with SQS semantics. A received message stays hidden for
// the visibility timeout and is delivered again unless it's deleted before then.
type MemQueue struct {
	name       string
	clk        clock.Clock
	visibility time.Duration

	mu       sync.Mutex
	messages []*memMessage
}

// NewMemQueue returns an empty queue whose visibility windows are measured on clk.
func NewMemQueue(name string, clk clock.Clock, visibility time.Duration) *MemQueue {
	return &MemQueue{name: name, clk: clk, visibility: visibility}
}

// Name returns the name of the queue.
func (q *MemQueue) Name() string {
	return q.name
}

// Publish enqueues the serialized event.
func (q *MemQueue) Publish(ctx context.Context, ev *progress.Event) error {
	body, err := ev.Encode()
	if err != nil {
		return err
	}
	q.Send(string(body))
	return nil
}

// Send enqueues body and returns the message ID.
func (q *MemQueue) Send(body string) string {
	m := &memMessage{MemMessage: MemMessage{ID: uuid.NewString(), Body: body}}
	q.mu.Lock()
	m.visibleAt = q.clk.Now()
	q.messages = append(q.messages, m)
	q.mu.Unlock()
	return m.ID
}

// Receive returns the oldest visible message hiding it for the visibility timeout, or nil.
func (q *MemQueue) Receive() *MemMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.clk.Now()
	for _, m := range q.messages {
		if m.visibleAt.After(now) {
			continue
		}
		m.visibleAt = now.Add(q.visibility)
		m.ReceiveCount++
		m.ReceiptHandle = uuid.NewString()
		mm := m.MemMessage
		return &mm
	}
	return nil
}

// Delete removes the message received with the handle. It returns false if the handle is
// stale because the message was received again since.
func (q *MemQueue) Delete(receiptHandle string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.messages {
		if m.ReceiptHandle == receiptHandle {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return true
		}
	}
	return false
}

// ChangeVisibility makes the message visible again after d.
func (q *MemQueue) ChangeVisibility(receiptHandle string, d time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range q.messages {
		if m.ReceiptHandle == receiptHandle {
			m.visibleAt = q.clk.Now().Add(d)
			return true
		}
	}
	return false
}

// Len returns the number of messages in the queue including hidden ones.
func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Bodies returns the bodies of all messages in the queue in order.
func (q *MemQueue) Bodies() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	bodies := make([]string, len(q.messages))
	for i, m := range q.messages {
		bodies[i] = m.Body
	}
	return bodies
}

// MemWorker consumes a MemQueue mapping outcomes the way the SQS worker does.
type MemWorker struct {
	started      uint32
	q            *MemQueue
	deadLetter   *MemQueue
	handler      Handler
	retryDelay   time.Duration
	pollInterval time.Duration
	outcomes     *worker.OutcomeCounters

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ worker.Worker = &MemWorker{}

// NewMemWorker returns a worker for q. deadLetter and outcomes may be nil.
func NewMemWorker(q, deadLetter *MemQueue, handler Handler, retryDelay time.Duration, outcomes *worker.OutcomeCounters) *MemWorker {
	return &MemWorker{
		q:            q,
		deadLetter:   deadLetter,
		handler:      handler,
		retryDelay:   retryDelay,
		pollInterval: 100 * time.Millisecond,
		outcomes:     outcomes,
	}
}

// ProcessNext handles the next visible message. It returns false when there was none.
func (w *MemWorker) ProcessNext(ctx context.Context) bool {
	m := w.q.Receive()
	if m == nil {
		return false
	}
	log := golog.Context("queue", w.q.name, "message_id", m.ID, "receive_count", m.ReceiveCount)
	ctx = golog.WithLogger(ctx, log)

	outcome := w.handler(ctx, m.Body)
	log.Debugf("Message outcome %s", outcome)
	w.outcomes.Record(outcome)
	switch outcome {
	case worker.Ack:
		w.q.Delete(m.ReceiptHandle)
	case worker.RetryLater:
		if w.retryDelay > 0 {
			w.q.ChangeVisibility(m.ReceiptHandle, w.retryDelay)
		}
	case worker.Escalate:
		if w.deadLetter != nil {
			w.deadLetter.Send(m.Body)
			log.Criticalf("Moved message to dead letter queue %s", w.deadLetter.name)
		} else {
			log.Criticalf("Dropping message that cannot be processed: %s", m.Body)
		}
		w.q.Delete(m.ReceiptHandle)
	default:
		log.Criticalf("Unknown handler outcome %d, leaving message for redelivery", int(outcome))
	}
	return true
}

func (w *MemWorker) Started() bool {
	return atomic.LoadUint32(&w.started) != 0
}

func (w *MemWorker) Start() {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.mu.Lock()
	w.cancel, w.done = cancel, done
	w.mu.Unlock()
	conc.Go(func() {
		defer close(done)
		defer atomic.StoreUint32(&w.started, 0)
		for ctx.Err() == nil {
			if w.ProcessNext(context.Background()) {
				continue
			}
			select {
			case <-ctx.Done():
			case <-time.After(w.pollInterval):
			}
		}
	})
}

func (w *MemWorker) Stop(wait time.Duration) {
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
