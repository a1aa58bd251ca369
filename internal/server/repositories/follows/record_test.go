package follows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
)

func followerIDs(fs []models.Follow) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.FollowerID)
	}
	return out
}

func TestRecordRepository_EdgeLifecycle(t *testing.T) {
	repo := NewRecordRepository(recordstore.NewMemoryStore(logging.Nop{}))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: "alice", FollowedID: "bob"}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: "carol", FollowedID: "bob"}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: "alice", FollowedID: "dave"}))
	require.ErrorIs(t, repo.Create(ctx, &models.Follow{FollowerID: "alice", FollowedID: "bob"}), common.ErrAlreadyExists)

	got, err := repo.ListByFollowed(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, followerIDs(got))

	following, err := repo.ListByFollower(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, following, 2)

	require.NoError(t, repo.Delete(ctx, "alice", "bob"))
	require.NoError(t, repo.Delete(ctx, "alice", "bob"))

	got, err = repo.ListByFollowed(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, followerIDs(got))

	following, err = repo.ListByFollower(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "dave", following[0].FollowedID)
}
