package preferences

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

// Get returns common.ErrorNotFound when the user never saved preferences.
func (r *RecordRepository) Get(ctx context.Context, userID string) (*models.UserPreferences, error) {
	p, err := recordstore.GetAs[models.UserPreferences](ctx, r.store, Collection, recordstore.Key{Partition: userID})
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (r *RecordRepository) Put(ctx context.Context, p *models.UserPreferences) error {
	if err := r.store.Put(ctx, Collection, p); err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}
