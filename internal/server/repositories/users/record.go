package users

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

// Create stores a new user; an existing id yields common.ErrAlreadyExists.
func (r *RecordRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.store.Insert(ctx, Collection, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := recordstore.GetAs[models.User](ctx, r.store, Collection, recordstore.Key{Partition: id})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
