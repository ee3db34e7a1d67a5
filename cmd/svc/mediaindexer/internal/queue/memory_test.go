package queue

import (
	"context"
	"testing"
	"time"

	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/clock"
	"github.com/sprucehealth/mediaindexer/libs/test"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

func TestMemQueueVisibility(t *testing.T) {
	clk := clock.NewManaged(time.Unix(1700000000, 0))
	q := NewMemQueue("progress", clk, 5*time.Minute)
	q.Send("a")

	m := q.Receive()
	test.Assert(t, m != nil, "Expected a message")
	test.Equals(t, "a", m.Body)
	test.Equals(t, 1, m.ReceiveCount)
	test.Assert(t, q.Receive() == nil, "Message should be hidden")

	// Not deleted before the visibility timeout expires so it's delivered again.
	clk.WarpForward(5 * time.Minute)
	m2 := q.Receive()
	test.Assert(t, m2 != nil, "Expected redelivery")
	test.Equals(t, 2, m2.ReceiveCount)
	test.Equals(t, m.ID, m2.ID)

	// The first receipt is stale now.
	test.Assert(t, !q.Delete(m.ReceiptHandle), "Stale receipt must not delete")
	test.Assert(t, q.ChangeVisibility(m2.ReceiptHandle, time.Minute), "Expected visibility change")
	clk.WarpForward(59 * time.Second)
	test.Assert(t, q.Receive() == nil, "Message should still be hidden")
	clk.WarpForward(time.Second)
	m3 := q.Receive()
	test.Assert(t, m3 != nil, "Expected message after backoff")
	test.Assert(t, q.Delete(m3.ReceiptHandle), "Expected delete")
	test.Equals(t, 0, q.Len())
}

func TestMemQueuePublish(t *testing.T) {
	q := NewMemQueue("progress", clock.New(), time.Minute)
	ev, err := progress.NewJobStarted(progress.JobDescriptor{JobName: "transcribe-abc-1", MediaID: "abc"})
	test.OK(t, err)
	test.OK(t, q.Publish(context.Background(), ev))
	test.Equals(t, 1, q.Len())
	got, err := progress.Decode([]byte(q.Bodies()[0]))
	test.OK(t, err)
	test.Equals(t, progress.KindJobStarted, got.Kind)
}

func TestMemWorkerOutcomes(t *testing.T) {
	clk := clock.NewManaged(time.Unix(1700000000, 0))
	q := NewMemQueue("progress", clk, 5*time.Minute)
	dlq := NewMemQueue("progress-dead", clk, 5*time.Minute)
	outcomes := map[string]worker.Outcome{
		"ack":      worker.Ack,
		"retry":    worker.RetryLater,
		"escalate": worker.Escalate,
	}
	var seen []string
	counts := worker.NewOutcomeCounters(nil)
	w := NewMemWorker(q, dlq, func(ctx context.Context, body string) worker.Outcome {
		seen = append(seen, body)
		return outcomes[body]
	}, time.Minute, counts)
	ctx := context.Background()

	q.Send("ack")
	q.Send("retry")
	q.Send("escalate")
	for w.ProcessNext(ctx) {
	}
	test.Equals(t, []string{"ack", "retry", "escalate"}, seen)
	test.Equals(t, []string{"retry"}, q.Bodies())
	test.Equals(t, []string{"escalate"}, dlq.Bodies())
	test.Equals(t, uint64(1), counts.Count(worker.Ack))
	test.Equals(t, uint64(1), counts.Count(worker.RetryLater))
	test.Equals(t, uint64(1), counts.Count(worker.Escalate))

	// The retried message comes back after the retry delay, not the visibility timeout.
	clk.WarpForward(time.Minute)
	test.Assert(t, w.ProcessNext(ctx), "Expected redelivery after retry delay")
	test.Equals(t, "retry", seen[3])
	test.Equals(t, uint64(2), counts.Count(worker.RetryLater))
}

func TestMemWorkerEscalateWithoutDeadLetter(t *testing.T) {
	q := NewMemQueue("progress", clock.New(), time.Minute)
	w := NewMemWorker(q, nil, func(ctx context.Context, body string) worker.Outcome {
		return worker.Escalate
	}, time.Minute, nil)
	q.Send("poison")
	test.Assert(t, w.ProcessNext(context.Background()), "Expected a message")
	test.Equals(t, 0, q.Len())
}

func TestMemWorkerStartStop(t *testing.T) {
	q := NewMemQueue("progress", clock.New(), time.Minute)
	done := make(chan string, 1)
	w := NewMemWorker(q, nil, func(ctx context.Context, body string) worker.Outcome {
		done <- body
		return worker.Ack
	}, time.Minute, nil)
	w.pollInterval = time.Millisecond
	w.Start()
	q.Send("hello")
	select {
	case body := <-done:
		test.Equals(t, "hello", body)
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for message")
	}
	w.Stop(5 * time.Second)
	test.Assert(t, !w.Started(), "Expected worker to be stopped")
}
