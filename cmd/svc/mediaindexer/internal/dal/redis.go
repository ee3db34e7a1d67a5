package dal

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sprucehealth/mediaindexer/libs/errors"
)

const redisKeyPrefix = "indexing_status:"

type redisDAL struct {
	client redis.Cmdable
}

// NewRedis returns a DAL storing each status as a hash at indexing_status:<media id>.
func NewRedis(client redis.Cmdable) DAL {
	return &redisDAL{client: client}
}

func (d *redisDAL) UpsertIndexingStatus(ctx context.Context, mediaID string, update *IndexingStatusUpdate) error {
	if err := validateMediaID(mediaID); err != nil {
		return err
	}
	fs := update.fields()
	if len(fs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, 2+2*len(fs))
	values = append(values, "media_id", mediaID)
	for _, f := range fs {
		values = append(values, f.name, f.value)
	}
	// HSET only writes the given fields of the hash.
	err := d.client.HSet(ctx, redisKeyPrefix+mediaID, values...).Err()
	return errors.Wrapf(err, "failed to upsert indexing status for %s", mediaID)
}

func (d *redisDAL) IndexingStatus(ctx context.Context, mediaID string) (*IndexingStatus, error) {
	m, err := d.client.HGetAll(ctx, redisKeyPrefix+mediaID).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get indexing status for %s", mediaID)
	}
	if len(m) == 0 {
		return nil, errors.Annotatef(ErrNotFound, "media_id=%s", mediaID)
	}
	s := &IndexingStatus{MediaID: mediaID}
	for k, v := range m {
		s.set(k, v)
	}
	return s, nil
}
