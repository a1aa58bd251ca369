package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// FollowService maintains the directed follow graph. Edges are unique per
// ordered pair; following twice and unfollowing a missing edge both succeed.
type FollowService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func NewFollowService(m repomanager.RepositoryManager, logger logging.Logger) *FollowService {
	return &FollowService{
		repomanager: m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func validateEdge(followerID, followedID string) error {
	if followerID == "" || followedID == "" {
		return fmt.Errorf("%w: both user ids are required", common.ErrValidation)
	}
	if followerID == followedID {
		return fmt.Errorf("%w: users cannot follow themselves", common.ErrValidation)
	}
	return nil
}

func (s *FollowService) Follow(ctx context.Context, followerID, followedID string) error {
	if err := validateEdge(followerID, followedID); err != nil {
		return err
	}
	err := s.repomanager.Follows().Create(ctx, &models.Follow{
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  s.now(),
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		return nil
	}
	return err
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if followerID == "" || followedID == "" {
		return fmt.Errorf("%w: both user ids are required", common.ErrValidation)
	}
	return s.repomanager.Follows().Delete(ctx, followerID, followedID)
}

// ListFollowers returns the ids following followedID in follow order.
func (s *FollowService) ListFollowers(ctx context.Context, followedID string) ([]string, error) {
	if followedID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	edges, err := s.repomanager.Follows().ListByFollowed(ctx, followedID)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(edges, func(f models.Follow) string { return f.FollowerID }), nil
}

// ListFollowing returns the ids followerID follows in follow order.
func (s *FollowService) ListFollowing(ctx context.Context, followerID string) ([]string, error) {
	if followerID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	edges, err := s.repomanager.Follows().ListByFollower(ctx, followerID)
	if err != nil {
		return nil, err
	}
	return uniqueIDs(edges, func(f models.Follow) string { return f.FollowedID }), nil
}

// uniqueIDs keeps the first occurrence of every id. Stores written by older
// versions may hold duplicate edges.
func uniqueIDs(edges []models.Follow, id func(models.Follow) string) []string {
	seen := make(map[string]struct{}, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		v := id(e)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
