package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

var sseAlgorithm = "AES256"

// S3 is a Store that uses AWS S3
type S3 struct {
	s3     s3iface.S3API
	bucket string
	prefix string
}

// NewS3 returns a new Store that uses S3
func NewS3(s3API s3iface.S3API, bucket, prefix string) *S3 {
	return &S3{
		s3:     s3API,
		bucket: bucket,
		prefix: prefix,
	}
}

// IDFromName returns a deterministic ID for a name.
func (s *S3) IDFromName(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, joinPrefix(s.prefix, name))
}

func (s *S3) Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/binary"
	}
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(joinPrefix(s.prefix, name)),
		Body:                 r,
		ContentLength:        aws.Int64(size),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: aws.String(sseAlgorithm),
	})
	if err != nil {
		return "", errors.Trace(err)
	}
	return s.IDFromName(name), nil
}

func (s *S3) GetReader(ctx context.Context, id string) (io.ReadCloser, error) {
	bucket, key, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, errors.Annotatef(ErrNoObject, "id=%s", id)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return obj.Body, nil
}

func isNotFound(err error) bool {
	if e, ok := err.(awserr.RequestFailure); ok && e.StatusCode() == http.StatusNotFound {
		return true
	}
	if e, ok := err.(awserr.Error); ok && e.Code() == s3.ErrCodeNoSuchKey {
		return true
	}
	return false
}
