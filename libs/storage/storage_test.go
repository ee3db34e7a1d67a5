package storage

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sprucehealth/mediaindexer/libs/errors"
	"github.com/sprucehealth/mediaindexer/libs/test"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.NewRequestFailure(awserr.New(s3.ErrCodeNoSuchKey, "not found", nil), http.StatusNotFound, "req")
	}
	return &s3.GetObjectOutput{Body: ioutil.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3(t *testing.T) {
	ctx := context.Background()
	f := &fakeS3{objects: make(map[string][]byte)}
	store := NewS3(f, "media", "/audio/")

	test.Equals(t, "s3://media/audio/abc.mp3", store.IDFromName("abc.mp3"))

	id, err := store.Put(ctx, "abc.mp3", bytes.NewReader([]byte("foo")), 3, "audio/mpeg")
	test.OK(t, err)
	test.Equals(t, "s3://media/audio/abc.mp3", id)
	test.Equals(t, "audio/mpeg", *f.puts[0].ContentType)
	test.Equals(t, "AES256", *f.puts[0].ServerSideEncryption)

	data, err := ReadAll(ctx, store, id)
	test.OK(t, err)
	test.Equals(t, "foo", string(data))

	_, err = store.GetReader(ctx, "s3://media/audio/missing.mp3")
	test.Equals(t, ErrNoObject, errors.Cause(err))
}

func TestParseID(t *testing.T) {
	bucket, key, err := ParseID("s3://media/uploads/a/b.mp4")
	test.OK(t, err)
	test.Equals(t, "media", bucket)
	test.Equals(t, "uploads/a/b.mp4", key)

	for _, id := range []string{"s3://media", "s3:///key", "::"} {
		_, _, err := ParseID(id)
		test.Assert(t, err != nil, "Expected error for %q", id)
	}
}

func TestTestStore(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore("out")
	id, err := store.Put(ctx, "transcribe-abc-1.txt", strings.NewReader("hello"), 5, "text/plain")
	test.OK(t, err)
	test.Equals(t, "s3://out/transcribe-abc-1.txt", id)
	test.Equals(t, []string{id}, store.IDs())
	test.Equals(t, "text/plain", store.Object(id).ContentType)
	data, err := ReadAll(ctx, store, id)
	test.OK(t, err)
	test.Equals(t, "hello", string(data))
	_, err = store.GetReader(ctx, "s3://out/nope")
	test.Equals(t, ErrNoObject, err)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "storage-test")
	test.OK(t, err)
	defer os.RemoveAll(dir)

	store, err := NewLocalStore(dir)
	test.OK(t, err)
	id, err := store.Put(ctx, "audio/abc.mp3", strings.NewReader("foo"), 3, "audio/mpeg")
	test.OK(t, err)
	test.Assert(t, strings.HasPrefix(id, "file://"), "Expected file id, got %s", id)
	test.Equals(t, id, store.IDFromName("audio/abc.mp3"))

	data, err := ReadAll(ctx, store, id)
	test.OK(t, err)
	test.Equals(t, "foo", string(data))

	_, err = store.GetReader(ctx, store.IDFromName("missing"))
	test.Equals(t, ErrNoObject, errors.Cause(err))

	_, err = store.Put(ctx, "../escape", strings.NewReader("x"), 1, "")
	test.Assert(t, err != nil, "Expected error writing outside of the store")
}

// TestMinio runs against a real server when TEST_MINIO_ENDPOINT is set
// (e.g. localhost:9000 with the default minioadmin credentials).
func TestMinio(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(os.Getenv("TEST_MINIO_ACCESS_KEY"), os.Getenv("TEST_MINIO_SECRET_KEY"), ""),
	})
	test.OK(t, err)
	ctx := context.Background()
	store := NewMinio(client, "storage-test", "prefix")
	test.OK(t, store.EnsureBucket(ctx))

	id, err := store.Put(ctx, "test-1", strings.NewReader("foo"), 3, "")
	test.OK(t, err)
	test.Equals(t, "s3://storage-test/prefix/test-1", id)
	data, err := ReadAll(ctx, store, id)
	test.OK(t, err)
	test.Equals(t, "foo", string(data))

	_, err = store.GetReader(ctx, "s3://storage-test/prefix/ofiu3j2n90f32u09fnmeuw9")
	test.Equals(t, ErrNoObject, errors.Cause(err))
}
