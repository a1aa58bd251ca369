package preferences

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

var Collection = recordstore.Collection{Name: "preferences", PartitionKey: "user_id"}

type Repository interface {
	Get(ctx context.Context, userID string) (*models.UserPreferences, error)
	Put(ctx context.Context, p *models.UserPreferences) error
}
