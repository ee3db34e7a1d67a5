package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// Local is a store that uses the local filesystem. IDs are file:// URLs.
// WARNING: It is not safe to use this in production. It's meant for running the service
// on a workstation together with the in-memory queue.
type Local struct {
	path string
}

// NewLocalStore initializes a new local file storage creating the path if necessary.
func NewLocalStore(path string) (*Local, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "storage.NewLocalStore: failed to make path %q absolute", path)
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, errors.Wrapf(err, "storage.NewLocalStore: failed create path %q", path)
	}
	return &Local{path: path}, nil
}

func (s *Local) pathForName(name string) (string, error) {
	p := filepath.Join(s.path, filepath.FromSlash(strings.TrimPrefix(name, "/")))
	if p != s.path && !strings.HasPrefix(p, s.path+string(filepath.Separator)) {
		return "", errors.Errorf("storage.Local: invalid name %q", name)
	}
	return p, nil
}

func (s *Local) IDFromName(name string) string {
	p, err := s.pathForName(name)
	if err != nil {
		return ""
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}

func (s *Local) Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error) {
	fullPath, err := s.pathForName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return "", errors.Trace(err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath)
		return "", errors.Trace(err)
	}
	if err := f.Sync(); err != nil {
		os.Remove(fullPath)
		return "", errors.Trace(err)
	}
	return s.IDFromName(name), nil
}

func (s *Local) GetReader(ctx context.Context, id string) (io.ReadCloser, error) {
	u, err := url.Parse(id)
	if err != nil || u.Scheme != "file" {
		return nil, errors.Errorf("storage.Local: bad id %q", id)
	}
	p := filepath.FromSlash(u.Path)
	if !strings.HasPrefix(p, s.path+string(filepath.Separator)) {
		return nil, errors.Errorf("storage.Local: id %q outside of %s", id, s.path)
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, errors.Annotatef(ErrNoObject, "path=%s", p)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}
