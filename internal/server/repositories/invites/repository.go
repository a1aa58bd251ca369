package invites

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

// Collection holds invite codes keyed by code.
var Collection = recordstore.Collection{Name: "invites", PartitionKey: "code"}

type Repository interface {
	Create(ctx context.Context, invite *models.Invite) error
	Get(ctx context.Context, code string) (*models.Invite, error)
	// IncrementRedemptions atomically adds one to the redemption count and
	// returns the updated invite.
	IncrementRedemptions(ctx context.Context, code string) (*models.Invite, error)
	// DecrementRedemptions takes back one redemption whose registration
	// did not complete.
	DecrementRedemptions(ctx context.Context, code string) (*models.Invite, error)
	ListByInvitor(ctx context.Context, invitorID string) ([]models.Invite, error)
}
