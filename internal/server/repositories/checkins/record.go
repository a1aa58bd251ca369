package checkins

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

type RecordRepository struct {
	store recordstore.Store
}

func NewRecordRepository(store recordstore.Store) *RecordRepository {
	return &RecordRepository{store: store}
}

func (r *RecordRepository) Put(ctx context.Context, c *models.Checkin) error {
	if err := r.store.Put(ctx, Collection, c); err != nil {
		return fmt.Errorf("put checkin: %w", err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, userID string) (*models.Checkin, error) {
	c, err := recordstore.GetAs[models.Checkin](ctx, r.store, Collection, recordstore.Key{Partition: userID})
	if err != nil {
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	return c, nil
}
