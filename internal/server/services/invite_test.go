package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
)

func TestInviteService_IssueRateLimit(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	clock := newClock()
	svc.now = clock.Now
	ctx := context.Background()

	codes := map[string]bool{}
	for i := 0; i < common.InviteLimit; i++ {
		inv, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", inv.InvitorID)
		assert.False(t, codes[inv.Code], "codes must be unique")
		codes[inv.Code] = true
		clock.Advance(time.Hour)
	}

	_, err := svc.Issue(ctx, "u1")
	require.ErrorIs(t, err, common.ErrRateLimitExceeded)

	// other invitors are unaffected
	_, err = svc.Issue(ctx, "u2")
	require.NoError(t, err)
}

func TestInviteService_RollingWindow(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	clock := newClock()
	svc.now = clock.Now
	ctx := context.Background()

	_, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	for i := 0; i < common.InviteLimit-1; i++ {
		_, err := svc.Issue(ctx, "u1")
		require.NoError(t, err)
	}
	_, err = svc.Issue(ctx, "u1")
	require.ErrorIs(t, err, common.ErrRateLimitExceeded)

	// the first invite leaves the window exactly 168h after it was issued
	clock.Advance(common.InviteWindow - 24*time.Hour - time.Second)
	_, err = svc.Issue(ctx, "u1")
	require.ErrorIs(t, err, common.ErrRateLimitExceeded)

	clock.Advance(time.Second)
	_, err = svc.Issue(ctx, "u1")
	require.NoError(t, err)

	all, err := svc.ListByInvitor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, common.InviteLimit+1)
}

func TestInviteService_ConcurrentIssueHonoursLimit(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	ctx := context.Background()

	const callers = 12
	var ok, limited atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(ctx, "u1")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrRateLimitExceeded):
				limited.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(common.InviteLimit), ok.Load())
	assert.Equal(t, int32(callers-common.InviteLimit), limited.Load())
}

func TestInviteService_CodeCollisionRetries(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	ctx := context.Background()

	seq := []string{"DUP", "DUP", "FRESH"}
	i := 0
	svc.newCode = func() string {
		c := seq[i%len(seq)]
		i++
		return c
	}

	first, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "DUP", first.Code)

	second, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "FRESH", second.Code)

	svc.newCode = func() string { return "DUP" }
	_, err = svc.Issue(ctx, "u1")
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestInviteService_Validation(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	_, err := svc.Issue(context.Background(), "  ")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Redeem(context.Background(), "")
	require.ErrorIs(t, err, common.ErrInvalidInviteCode)

	_, err = svc.Redeem(context.Background(), "no-such-code")
	require.ErrorIs(t, err, common.ErrInvalidInviteCode)
}

func TestInviteService_ConcurrentRedeemCountsEveryCall(t *testing.T) {
	svc := NewInviteService(newManager(t), logging.Nop{})
	ctx := context.Background()
	inv, err := svc.Issue(ctx, "u1")
	require.NoError(t, err)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(ctx, inv.Code)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Redeem(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), got.RedemptionCount)
}

func TestInviteService_StorageErrorsSurface(t *testing.T) {
	svc := NewInviteService(newBrokenManager(), logging.Nop{})

	_, err := svc.Issue(context.Background(), "u1")
	require.ErrorIs(t, err, errBoom)

	_, err = svc.Redeem(context.Background(), "CODE")
	require.ErrorIs(t, err, errBoom)
	assert.False(t, errors.Is(err, common.ErrInvalidInviteCode), fmt.Sprint(err))
}
