package duress

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

type RecordRepository struct {
	store recordstore.Store
}

func NewRecordRepository(store recordstore.Store) *RecordRepository {
	return &RecordRepository{store: store}
}

func (r *RecordRepository) Put(ctx context.Context, rec *models.DuressRecord) error {
	if err := r.store.Put(ctx, Collection, rec); err != nil {
		return fmt.Errorf("put duress: %w", err)
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, userID string) (*models.DuressRecord, error) {
	rec, err := recordstore.GetAs[models.DuressRecord](ctx, r.store, Collection, recordstore.Key{Partition: userID})
	if err != nil {
		return nil, fmt.Errorf("get duress: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) update(ctx context.Context, userID string, u *recordstore.Update) (*models.DuressRecord, error) {
	var rec models.DuressRecord
	if err := r.store.Update(ctx, Collection, recordstore.Key{Partition: userID}, u, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RecordRepository) Cancel(ctx context.Context, userID string, at time.Time) (*models.DuressRecord, error) {
	u := recordstore.Set("state", models.DuressCancelled).
		Set("cancelled_at", at.UTC()).
		If("state", models.DuressActive)

	rec, err := r.update(ctx, userID, u)
	if err != nil {
		return nil, fmt.Errorf("cancel duress: %w", err)
	}
	return rec, nil
}

func (r *RecordRepository) AttachEvidence(ctx context.Context, userID, key string) (*models.DuressRecord, error) {
	u := recordstore.Set("evidence_key", key).If("state", models.DuressActive)

	rec, err := r.update(ctx, userID, u)
	if err != nil {
		return nil, fmt.Errorf("attach evidence: %w", err)
	}
	return rec, nil
}
