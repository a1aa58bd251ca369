package follows

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

func (r *RecordRepository) Create(ctx context.Context, f *models.Follow) error {
	if err := r.store.Insert(ctx, Collection, f); err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, followerID, followedID string) error {
	k := recordstore.Key{Partition: followerID, Sort: followedID}
	if err := r.store.Delete(ctx, Collection, k); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (r *RecordRepository) list(ctx context.Context, field, id string) ([]models.Follow, error) {
	out, err := recordstore.ScanAll[models.Follow](ctx, r.store, Collection, recordstore.Where(field, id))
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	return out, nil
}

func (r *RecordRepository) ListByFollowed(ctx context.Context, followedID string) ([]models.Follow, error) {
	return r.list(ctx, "followed_id", followedID)
}

func (r *RecordRepository) ListByFollower(ctx context.Context, followerID string) ([]models.Follow, error) {
	return r.list(ctx, "follower_id", followerID)
}
