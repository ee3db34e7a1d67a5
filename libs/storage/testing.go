package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"sync"
)

// TestObject is an object held by a test store.
type TestObject struct {
	Data        []byte
	ContentType string
}

// TestStore is an in-memory Store. It's used by tests and by the memory mode of services.
type TestStore struct {
	bucket  string
	objects map[string]*TestObject
	mu      sync.Mutex
}

// NewTestStore returns an in-memory store whose IDs are s3://<bucket>/<name>.
func NewTestStore(bucket string) *TestStore {
	return &TestStore{
		bucket:  bucket,
		objects: make(map[string]*TestObject),
	}
}

func (s *TestStore) IDFromName(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, joinPrefix("", name))
}

func (s *TestStore) Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := s.IDFromName(name)
	s.mu.Lock()
	s.objects[id] = &TestObject{Data: data, ContentType: contentType}
	s.mu.Unlock()
	return id, nil
}

func (s *TestStore) GetReader(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.Lock()
	o := s.objects[id]
	s.mu.Unlock()
	if o == nil {
		return nil, ErrNoObject
	}
	return ioutil.NopCloser(bytes.NewReader(o.Data)), nil
}

// Object returns the object stored under id or nil.
func (s *TestStore) Object(id string) *TestObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[id]
}

// IDs returns the sorted IDs of all objects in the store.
func (s *TestStore) IDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	return ids
}
