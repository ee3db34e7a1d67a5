package dal

import (
	"context"
	"sync"

	"github.com/sprucehealth/mediaindexer/libs/errors"
)

type memoryDAL struct {
	mu   sync.Mutex
	rows map[string]IndexingStatus
}

// NewMemory returns a DAL that keeps rows in process memory.
func NewMemory() DAL {
	return &memoryDAL{rows: make(map[string]IndexingStatus)}
}

func (d *memoryDAL) UpsertIndexingStatus(ctx context.Context, mediaID string, update *IndexingStatusUpdate) error {
	if err := validateMediaID(mediaID); err != nil {
		return err
	}
	if len(update.fields()) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	row := d.rows[mediaID]
	row.MediaID = mediaID
	update.apply(&row)
	d.rows[mediaID] = row
	return nil
}

func (d *memoryDAL) IndexingStatus(ctx context.Context, mediaID string) (*IndexingStatus, error) {
	d.mu.Lock()
	row, ok := d.rows[mediaID]
	d.mu.Unlock()
	if !ok {
		return nil, errors.Annotatef(ErrNotFound, "media_id=%s", mediaID)
	}
	return &row, nil
}
