package invites

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

const redemptionField = "invite_count"

type RecordRepository struct {
	store recordstore.Store
}

func NewRecordRepository(store recordstore.Store) *RecordRepository {
	return &RecordRepository{store: store}
}

func (r *RecordRepository) Create(ctx context.Context, invite *models.Invite) error {
	if err := r.store.Insert(ctx, Collection, invite); err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, code string) (*models.Invite, error) {
	inv, err := recordstore.GetAs[models.Invite](ctx, r.store, Collection, recordstore.Key{Partition: code})
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

func (r *RecordRepository) IncrementRedemptions(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	err := r.store.Update(ctx, Collection, recordstore.Key{Partition: code}, recordstore.Add(redemptionField, 1), &inv)
	if err != nil {
		return nil, fmt.Errorf("redeem invite: %w", err)
	}
	return &inv, nil
}

func (r *RecordRepository) DecrementRedemptions(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	err := r.store.Update(ctx, Collection, recordstore.Key{Partition: code}, recordstore.Add(redemptionField, -1), &inv)
	if err != nil {
		return nil, fmt.Errorf("release invite: %w", err)
	}
	return &inv, nil
}

func (r *RecordRepository) ListByInvitor(ctx context.Context, invitorID string) ([]models.Invite, error) {
	out, err := recordstore.ScanAll[models.Invite](ctx, r.store, Collection, recordstore.Where("invitor_id", invitorID))
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return out, nil
}
