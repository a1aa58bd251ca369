package follows

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

// Collection holds follow edges. The composite key makes an edge unique.
var Collection = recordstore.Collection{Name: "follows", PartitionKey: "follower_id", SortKey: "followed_id"}

type Repository interface {
	// Create returns common.ErrAlreadyExists when the edge is present.
	Create(ctx context.Context, f *models.Follow) error
	Delete(ctx context.Context, followerID, followedID string) error
	ListByFollowed(ctx context.Context, followedID string) ([]models.Follow, error)
	ListByFollower(ctx context.Context, followerID string) ([]models.Follow, error)
}
