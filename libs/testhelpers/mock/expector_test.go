package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
)

func TestExpector(t *testing.T) {
	m := NewMockSQSAPI(t)
	m.Expect(NewExpectation(m.SendMessageWithContext, &sqs.SendMessageInput{
		QueueUrl:    aws.String("q"),
		MessageBody: aws.String("body"),
	}).WithReturns(&sqs.SendMessageOutput{MessageId: aws.String("1")}, nil))
	defer FinishAll(m)

	out, err := m.SendMessageWithContext(nil, &sqs.SendMessageInput{
		QueueUrl:    aws.String("q"),
		MessageBody: aws.String("body"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if *out.MessageId != "1" {
		t.Fatalf("Expected message ID 1 got %s", *out.MessageId)
	}
}

func TestShortFuncName(t *testing.T) {
	for name, exp := range map[string]string{
		"github.com/x/mock.(*mockSQSAPI).SendMessageWithContext-fm": "SendMessageWithContext",
		"github.com/x/mock.(*mockSQSAPI).SendMessageWithContext":    "SendMessageWithContext",
	} {
		if got := shortFuncName(name); got != exp {
			t.Fatalf("shortFuncName(%q) = %q, expected %q", name, got, exp)
		}
	}
}
