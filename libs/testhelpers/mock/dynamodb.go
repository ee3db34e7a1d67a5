package mock

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// DynamoDB mocks out the functionality of the dynamodb client for use in tests
type DynamoDB struct {
	dynamodbiface.DynamoDBAPI
	*Expector
	// Outputs should be set to stage return calls from the corresponding method
	GetItemOutputs    []*dynamodb.GetItemOutput
	GetItemErrs       []error
	UpdateItemOutputs []*dynamodb.UpdateItemOutput
	UpdateItemErrs    []error
}

// GetItemWithContext is a mocked implementation that returns the queued data
func (d *DynamoDB) GetItemWithContext(ctx aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	defer d.Record(input)
	var out *dynamodb.GetItemOutput
	if len(d.GetItemOutputs) != 0 {
		out = d.GetItemOutputs[0]
		d.GetItemOutputs = d.GetItemOutputs[1:]
	}

	return out, popError(&d.GetItemErrs)
}

// UpdateItemWithContext is a mocked implementation that returns the queued data
func (d *DynamoDB) UpdateItemWithContext(ctx aws.Context, input *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	defer d.Record(input)
	out := &dynamodb.UpdateItemOutput{}
	if len(d.UpdateItemOutputs) != 0 {
		out = d.UpdateItemOutputs[0]
		d.UpdateItemOutputs = d.UpdateItemOutputs[1:]
	}

	return out, popError(&d.UpdateItemErrs)
}

// popError removes and returns the first staged error or nil when none are left.
func popError(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
