package queue

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// SQSPublisher publishes events to an SQS queue.
type SQSPublisher struct {
	sqsAPI   sqsiface.SQSAPI
	queueURL string
}

// NewSQSPublisher returns a publisher sending to queueURL.
func NewSQSPublisher(sqsAPI sqsiface.SQSAPI, queueURL string) *SQSPublisher {
	return &SQSPublisher{sqsAPI: sqsAPI, queueURL: queueURL}
}

// Publish sends the serialized event.
func (p *SQSPublisher) Publish(ctx context.Context, ev *progress.Event) error {
	body, err := ev.Encode()
	if err != nil {
		return err
	}
	_, err = p.sqsAPI.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(ev.Kind))},
		},
	})
	return errors.Wrapf(err, "failed to publish %s event to %s", ev.Kind, p.queueURL)
}

// ResolveSQSURL returns nameOrURL when it's already a queue URL and otherwise looks up the
// URL of the named queue.
func ResolveSQSURL(ctx context.Context, sqsAPI sqsiface.SQSAPI, nameOrURL string) (string, error) {
	if nameOrURL == "" || strings.HasPrefix(nameOrURL, "https://") || strings.HasPrefix(nameOrURL, "http://") {
		return nameOrURL, nil
	}
	res, err := sqsAPI.GetQueueUrlWithContext(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(nameOrURL)})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get URL of queue %s", nameOrURL)
	}
	return aws.StringValue(res.QueueUrl), nil
}
