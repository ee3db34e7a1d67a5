package dal

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

type dynamoDAL struct {
	db    dynamodbiface.DynamoDBAPI
	table string
}

// NewDynamoDB returns a DAL storing one item per media in table, hash key media_id.
func NewDynamoDB(db dynamodbiface.DynamoDBAPI, table string) DAL {
	return &dynamoDAL{db: db, table: table}
}

func (d *dynamoDAL) key(mediaID string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"media_id": {S: aws.String(mediaID)},
	}
}

func (d *dynamoDAL) UpsertIndexingStatus(ctx context.Context, mediaID string, update *IndexingStatusUpdate) error {
	if err := validateMediaID(mediaID); err != nil {
		return err
	}
	fs := update.fields()
	if len(fs) == 0 {
		return nil
	}
	// UpdateItem creates the item when missing and only touches the attributes in the expression.
	names := make(map[string]*string, len(fs))
	values := make(map[string]*dynamodb.AttributeValue, len(fs))
	sets := make([]string, len(fs))
	for i, f := range fs {
		n := "#f" + strconv.Itoa(i)
		v := ":v" + strconv.Itoa(i)
		names[n] = aws.String(f.name)
		values[v] = attributeValue(f.value)
		sets[i] = n + " = " + v
	}
	_, err := d.db.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.table),
		Key:                       d.key(mediaID),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return errors.Wrapf(err, "failed to upsert indexing status for %s", mediaID)
}

func (d *dynamoDAL) IndexingStatus(ctx context.Context, mediaID string) (*IndexingStatus, error) {
	res, err := d.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.key(mediaID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get indexing status for %s", mediaID)
	}
	if res == nil || len(res.Item) == 0 {
		return nil, errors.Annotatef(ErrNotFound, "media_id=%s", mediaID)
	}
	var s IndexingStatus
	if err := dynamodbattribute.UnmarshalMap(res.Item, &s); err != nil {
		return nil, errors.Trace(err)
	}
	return &s, nil
}

// attributeValue encodes a string. DynamoDB rejects empty strings in non key attributes on
// older tables so they're written as NULL, which reads back as "".
func attributeValue(s string) *dynamodb.AttributeValue {
	if s == "" {
		return &dynamodb.AttributeValue{NULL: aws.Bool(true)}
	}
	return &dynamodb.AttributeValue{S: aws.String(s)}
}
