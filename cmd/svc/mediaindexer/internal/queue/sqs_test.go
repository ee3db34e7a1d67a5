package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/test"
	"github.com/sprucehealth/mediaindexer/libs/testhelpers/mock"
)

func TestSQSPublisher(t *testing.T) {
	sqsAPI := mock.NewMockSQSAPI(t)
	defer mock.FinishAll(sqsAPI)

	ev, err := progress.NewJobStarted(progress.JobDescriptor{JobName: "transcribe-abc-1", MediaID: "abc"})
	test.OK(t, err)
	body, err := ev.Encode()
	test.OK(t, err)

	sqsAPI.Expect(mock.NewExpectation(sqsAPI.SendMessageWithContext, &sqs.SendMessageInput{
		QueueUrl:    aws.String("https://sqs.us-east-1.amazonaws.com/1/progress"),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String("JOB_STARTED")},
		},
	}).WithReturns(&sqs.SendMessageOutput{MessageId: aws.String("1")}, nil))

	p := NewSQSPublisher(sqsAPI, "https://sqs.us-east-1.amazonaws.com/1/progress")
	test.OK(t, p.Publish(context.Background(), ev))
}

func TestResolveSQSURL(t *testing.T) {
	sqsAPI := mock.NewMockSQSAPI(t)
	defer mock.FinishAll(sqsAPI)
	ctx := context.Background()

	u, err := ResolveSQSURL(ctx, sqsAPI, "https://sqs.us-east-1.amazonaws.com/1/progress")
	test.OK(t, err)
	test.Equals(t, "https://sqs.us-east-1.amazonaws.com/1/progress", u)

	sqsAPI.Expect(mock.NewExpectation(sqsAPI.GetQueueUrlWithContext, &sqs.GetQueueUrlInput{
		QueueName: aws.String("progress"),
	}).WithReturns(&sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs.us-east-1.amazonaws.com/1/progress")}, nil))
	u, err = ResolveSQSURL(ctx, sqsAPI, "progress")
	test.OK(t, err)
	test.Equals(t, "https://sqs.us-east-1.amazonaws.com/1/progress", u)
}
