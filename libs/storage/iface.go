package storage

import (
	"context"
	"io"
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

// ErrNoObject is returned when the requested object does not exist.
var ErrNoObject = errors.New("storage: no object")

// Store reads and writes blobs. IDs returned by Put are stable and can be passed to GetReader
// on any store of the same kind.
type Store interface {
	Put(ctx context.Context, name string, r io.ReadSeeker, size int64, contentType string) (string, error)
	GetReader(ctx context.Context, id string) (io.ReadCloser, error)
	// IDFromName returns the ID Put would return for name.
	IDFromName(name string) string
}

// ReadAll returns the full contents of an object.
func ReadAll(ctx context.Context, s Store, id string) ([]byte, error) {
	r, err := s.GetReader(ctx, id)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}

// ParseID splits a bucket ID of the form scheme://bucket/key.
func ParseID(id string) (bucket, key string, err error) {
	u, err := url.Parse(id)
	if err != nil {
		return "", "", errors.Wrapf(err, "storage: bad id %q", id)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.Errorf("storage: bad id %q", id)
	}
	return u.Host, key, nil
}

func joinPrefix(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	name = strings.TrimPrefix(name, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
