package awsutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sprucehealth/mediaindexer/libs/test"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

type fakeSQS struct {
	sqsiface.SQSAPI

	mu         sync.Mutex
	pending    []*sqs.Message
	deleted    []string
	visibility map[string]int64
	sent       []*sqs.SendMessageInput
	sendErr    error
}

func (f *fakeSQS) ReceiveMessageWithContext(ctx aws.Context, in *sqs.ReceiveMessageInput, _ ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	if len(f.pending) != 0 {
		m := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return &sqs.ReceiveMessageOutput{Messages: []*sqs.Message{m}}, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSQS) DeleteMessageWithContext(ctx aws.Context, in *sqs.DeleteMessageInput, _ ...request.Option) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, *in.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibilityWithContext(ctx aws.Context, in *sqs.ChangeMessageVisibilityInput, _ ...request.Option) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visibility == nil {
		f.visibility = make(map[string]int64)
	}
	f.visibility[*in.ReceiptHandle] = *in.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) SendMessageWithContext(ctx aws.Context, in *sqs.SendMessageInput, _ ...request.Option) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("dlq-1")}, nil
}

func message(handle, body string) *sqs.Message {
	return &sqs.Message{
		MessageId:     aws.String("id-" + handle),
		ReceiptHandle: aws.String(handle),
		Body:          aws.String(body),
	}
}

func handlerReturning(o worker.Outcome) SQSHandler {
	return func(context.Context, string) worker.Outcome { return o }
}

func TestSQSWorkerAck(t *testing.T) {
	f := &fakeSQS{}
	w := NewSQSWorker(f, "q", handlerReturning(worker.Ack))
	w.processMessage(context.Background(), message("h1", "{}"))
	test.Equals(t, []string{"h1"}, f.deleted)
	test.Equals(t, 0, len(f.visibility))
}

func TestSQSWorkerRetryLater(t *testing.T) {
	f := &fakeSQS{}
	w := NewSQSWorker(f, "q", handlerReturning(worker.RetryLater), WithRetryDelay(time.Minute))
	w.processMessage(context.Background(), message("h1", "{}"))
	test.Equals(t, 0, len(f.deleted))
	test.Equals(t, map[string]int64{"h1": 60}, f.visibility)

	// Without a retry delay the message is left alone until its visibility timeout expires.
	f = &fakeSQS{}
	w = NewSQSWorker(f, "q", handlerReturning(worker.RetryLater))
	w.processMessage(context.Background(), message("h1", "{}"))
	test.Equals(t, 0, len(f.deleted))
	test.Equals(t, 0, len(f.visibility))
}

func TestSQSWorkerEscalateWithoutDeadLetterQueue(t *testing.T) {
	f := &fakeSQS{}
	w := NewSQSWorker(f, "q", handlerReturning(worker.Escalate))
	w.processMessage(context.Background(), message("h1", "bad"))
	test.Equals(t, []string{"h1"}, f.deleted)
	test.Equals(t, 0, len(f.sent))
}

func TestSQSWorkerEscalateToDeadLetterQueue(t *testing.T) {
	f := &fakeSQS{}
	w := NewSQSWorker(f, "q", handlerReturning(worker.Escalate), WithDeadLetterQueue("dlq"))
	w.processMessage(context.Background(), message("h1", "bad"))
	test.Equals(t, []string{"h1"}, f.deleted)
	test.Equals(t, 1, len(f.sent))
	test.Equals(t, "dlq", *f.sent[0].QueueUrl)
	test.Equals(t, "bad", *f.sent[0].MessageBody)
	test.Equals(t, "q", *f.sent[0].MessageAttributes["SourceQueue"].StringValue)
}

func TestSQSWorkerEscalateDeadLetterFailure(t *testing.T) {
	f := &fakeSQS{sendErr: errors.New("throttled")}
	w := NewSQSWorker(f, "q", handlerReturning(worker.Escalate), WithDeadLetterQueue("dlq"))
	w.processMessage(context.Background(), message("h1", "bad"))
	test.Equals(t, 0, len(f.deleted))
}

func TestSQSWorkerCountsOutcomes(t *testing.T) {
	f := &fakeSQS{}
	outcomes := worker.NewOutcomeCounters(nil)
	for _, o := range []worker.Outcome{worker.Ack, worker.RetryLater, worker.Escalate, worker.RetryLater} {
		w := NewSQSWorker(f, "q", handlerReturning(o), WithOutcomeCounters(outcomes))
		w.processMessage(context.Background(), message("h", "{}"))
	}
	test.Equals(t, uint64(1), outcomes.Count(worker.Ack))
	test.Equals(t, uint64(2), outcomes.Count(worker.RetryLater))
	test.Equals(t, uint64(1), outcomes.Count(worker.Escalate))
}

func TestSQSWorkerStartStop(t *testing.T) {
	f := &fakeSQS{pending: []*sqs.Message{message("h1", "a"), message("h2", "b")}}
	var mu sync.Mutex
	var bodies []string
	done := make(chan struct{})
	w := NewSQSWorker(f, "q", func(ctx context.Context, body string) worker.Outcome {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, body)
		if len(bodies) == 2 {
			close(done)
		}
		return worker.Ack
	})
	w.Start()
	test.Assert(t, w.Started(), "Expected worker to be started")
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for messages")
	}
	w.Stop(5 * time.Second)
	test.Assert(t, !w.Started(), "Expected worker to be stopped")
	test.Equals(t, []string{"a", "b"}, bodies)
	f.mu.Lock()
	test.Equals(t, []string{"h1", "h2"}, f.deleted)
	f.mu.Unlock()
}

func TestSeconds(t *testing.T) {
	test.Equals(t, int64(90), seconds(90*time.Second))
	test.Equals(t, int64(43200), seconds(24*time.Hour))
	test.Equals(t, int64(0), seconds(-time.Second))
}
