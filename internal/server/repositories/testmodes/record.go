package testmodes

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

func (r *RecordRepository) Put(ctx context.Context, m *models.TestMode) error {
	if err := r.store.Put(ctx, Collection, m); err != nil {
		return fmt.Errorf("put test mode: %w", err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, userID string) (*models.TestMode, error) {
	m, err := recordstore.GetAs[models.TestMode](ctx, r.store, Collection, recordstore.Key{Partition: userID})
	if err != nil {
		return nil, fmt.Errorf("get test mode: %w", err)
	}
	return m, nil
}
