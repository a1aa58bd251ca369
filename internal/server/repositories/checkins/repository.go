package checkins

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

// Collection keeps only the latest check-in per user.
var Collection = recordstore.Collection{Name: "checkins", PartitionKey: "user_id"}

type Repository interface {
	Put(ctx context.Context, c *models.Checkin) error
	Get(ctx context.Context, userID string) (*models.Checkin, error)
}
