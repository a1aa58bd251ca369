package duress

import (
	"context"
	"time"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

// Collection holds the current duress record of each user.
var Collection = recordstore.Collection{Name: "duress", PartitionKey: "user_id"}

type Repository interface {
	// Put replaces the user's current record.
	Put(ctx context.Context, rec *models.DuressRecord) error
	Get(ctx context.Context, userID string) (*models.DuressRecord, error)
	// Cancel moves an active record to cancelled. A record in any other state
	// yields common.ErrConflict.
	Cancel(ctx context.Context, userID string, at time.Time) (*models.DuressRecord, error)
	// AttachEvidence stores key on an active record.
	AttachEvidence(ctx context.Context, userID, key string) (*models.DuressRecord, error)
}
