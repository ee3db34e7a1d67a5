package mock

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

type mockSQSAPI struct {
	sqsiface.SQSAPI
	*Expector
}

var _ sqsiface.SQSAPI = NewMockSQSAPI(nil)

// NewMockSQSAPI returns a mock compatible SQSAPI instance
func NewMockSQSAPI(t *testing.T) *mockSQSAPI {
	return &mockSQSAPI{Expector: &Expector{T: t}}
}

func (s *mockSQSAPI) GetQueueUrlWithContext(ctx aws.Context, in *sqs.GetQueueUrlInput, _ ...request.Option) (*sqs.GetQueueUrlOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sqs.GetQueueUrlOutput), SafeError(rets[1])
}

func (s *mockSQSAPI) SendMessageWithContext(ctx aws.Context, in *sqs.SendMessageInput, _ ...request.Option) (*sqs.SendMessageOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sqs.SendMessageOutput), SafeError(rets[1])
}

func (s *mockSQSAPI) DeleteMessageWithContext(ctx aws.Context, in *sqs.DeleteMessageInput, _ ...request.Option) (*sqs.DeleteMessageOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sqs.DeleteMessageOutput), SafeError(rets[1])
}

func (s *mockSQSAPI) ChangeMessageVisibilityWithContext(ctx aws.Context, in *sqs.ChangeMessageVisibilityInput, _ ...request.Option) (*sqs.ChangeMessageVisibilityOutput, error) {
	rets := s.Record(in)
	if len(rets) == 0 {
		return nil, nil
	}
	return rets[0].(*sqs.ChangeMessageVisibilityOutput), SafeError(rets[1])
}
