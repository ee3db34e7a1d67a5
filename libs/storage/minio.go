package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Minio is a Store backed by an S3 compatible MinIO server.
type Minio struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinio returns a Store that writes to bucket on the MinIO server behind client.
func NewMinio(client *minio.Client, bucket, prefix string) *Minio {
	return &Minio{client: client, bucket: bucket, prefix: prefix}
}

// EnsureBucket creates the store's bucket if it doesn't exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return errors.Trace(err)
	}
	if exists {
		return nil
	}
	return errors.Trace(m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}))
}

func (m *Minio) IDFromName(name string) string {
	return fmt.Sprintf("s3://%s/%s", m.bucket, joinPrefix(m.prefix, name))
}

func (m *Minio) Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/binary"
	}
	if _, err := m.client.PutObject(ctx, m.bucket, joinPrefix(m.prefix, name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", errors.Trace(err)
	}
	return m.IDFromName(name), nil
}

func (m *Minio) GetReader(ctx context.Context, id string) (io.ReadCloser, error) {
	bucket, key, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	// GetObject is lazy so stat to surface a missing object now.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
			return nil, errors.Annotatef(ErrNoObject, "id=%s", id)
		}
		return nil, errors.Trace(err)
	}
	return obj, nil
}
