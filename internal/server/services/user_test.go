package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/cryptox"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/recordstore"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

func newUserService(t *testing.T, m repomanager.RepositoryManager) (*UserService, *InviteService) {
	t.Helper()
	invites := NewInviteService(m, logging.Nop{})
	return NewUserService(m, invites, logging.Nop{}), invites
}

func TestUserService_RegisterScenario(t *testing.T) {
	m := newManager(t)
	users, invites := newUserService(t, m)
	ctx := context.Background()

	inv, err := invites.Issue(ctx, "U1")
	require.NoError(t, err)

	u2, err := users.Register(ctx, inv.Code, "1111", "9999")
	require.NoError(t, err)
	got, err := m.Invites().Get(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RedemptionCount)

	u3, err := users.Register(ctx, inv.Code, "2222", "8888")
	require.NoError(t, err)
	got, err = m.Invites().Get(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RedemptionCount)

	assert.NotEqual(t, u2.ID, u3.ID)
	assert.Equal(t, inv.Code, u2.InviteCode)
}

func TestUserService_PinsAreHashed(t *testing.T) {
	m := newManager(t)
	users, invites := newUserService(t, m)
	ctx := context.Background()
	inv, err := invites.Issue(ctx, "U1")
	require.NoError(t, err)

	u, err := users.Register(ctx, inv.Code, "1111", "9999")
	require.NoError(t, err)

	stored, err := users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "1111", stored.NormalPin)
	ok, err := cryptox.VerifyPin(stored.DuressPin, "9999")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, users.VerifyNormalPin(ctx, u.ID, "1111"))
	require.ErrorIs(t, users.VerifyNormalPin(ctx, u.ID, "9999"), common.ErrInvalidPin)
	require.ErrorIs(t, users.VerifyNormalPin(ctx, "ghost", "1111"), common.ErrorNotFound)
}

func TestUserService_RegisterValidation(t *testing.T) {
	m := newManager(t)
	users, invites := newUserService(t, m)
	ctx := context.Background()
	inv, err := invites.Issue(ctx, "U1")
	require.NoError(t, err)

	tests := []struct {
		name                 string
		code, normal, duress string
		want                 error
	}{
		{"no code", "", "1", "2", common.ErrInvalidInviteCode},
		{"unknown code", "nope", "1", "2", common.ErrInvalidInviteCode},
		{"no normal pin", inv.Code, "", "2", common.ErrValidation},
		{"no duress pin", inv.Code, "1", "", common.ErrValidation},
		{"same pins", inv.Code, "1", "1", common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Register(ctx, tt.code, tt.normal, tt.duress)
			require.ErrorIs(t, err, tt.want)
		})
	}

	// failed registrations never consume the invite
	got, err := m.Invites().Get(ctx, inv.Code)
	require.NoError(t, err)
	assert.Zero(t, got.RedemptionCount)
}

func TestUserService_HashFailureStopsBeforeRedeem(t *testing.T) {
	m := newManager(t)
	users, invites := newUserService(t, m)
	ctx := context.Background()
	inv, err := invites.Issue(ctx, "U1")
	require.NoError(t, err)

	users.hashPin = func(string) (string, error) { return "", errBoom }
	_, err = users.Register(ctx, inv.Code, "1", "2")
	require.True(t, errors.Is(err, errBoom))

	got, err := m.Invites().Get(ctx, inv.Code)
	require.NoError(t, err)
	assert.Zero(t, got.RedemptionCount)
}

func TestUserService_FailedCreateReleasesInvite(t *testing.T) {
	m := repomanager.NewRecordRepositoryManager(usersDownStore{Store: recordstore.NewMemoryStore(logging.Nop{})})
	users, invites := newUserService(t, m)
	ctx := context.Background()

	inv, err := invites.Issue(ctx, "U1")
	require.NoError(t, err)
	_, err = invites.Redeem(ctx, inv.Code)
	require.NoError(t, err)

	_, err = users.Register(ctx, inv.Code, "1111", "9999")
	require.ErrorIs(t, err, errBoom)

	got, err := m.Invites().Get(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.RedemptionCount)
}
