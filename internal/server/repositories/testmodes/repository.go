package testmodes

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

var Collection = recordstore.Collection{Name: "testmodes", PartitionKey: "user_id"}

type Repository interface {
	Put(ctx context.Context, m *models.TestMode) error
	Get(ctx context.Context, userID string) (*models.TestMode, error)
}
