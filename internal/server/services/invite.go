// Package services contains server-side business logic on top of the
// repositories: the invite ledger, registration, the follow graph, the duress
// state machine and evidence uploads.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guardian/internal/syncx"
)

// maxCodeAttempts bounds retries on invite code collisions.
const maxCodeAttempts = 3

// InviteService issues and redeems invite codes.
//
// Issuance is limited to common.InviteLimit codes per invitor within any
// rolling common.InviteWindow. The count and the insert run under a
// per-invitor lock, so the limit is exact within one process; across several
// processes on a remote backend it is best-effort.
type InviteService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	locks       syncx.KeyedMutex
	now         func() time.Time
	newCode     func() string
}

func NewInviteService(m repomanager.RepositoryManager, logger logging.Logger) *InviteService {
	return &InviteService{
		repomanager: m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newCode:     uuid.NewString,
	}
}

// Issue creates a fresh invite code owned by invitorID.
func (s *InviteService) Issue(ctx context.Context, invitorID string) (*models.Invite, error) {
	if strings.TrimSpace(invitorID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", common.ErrValidation)
	}

	unlock := s.locks.Lock(invitorID)
	defer unlock()

	repo := s.repomanager.Invites()
	existing, err := repo.ListByInvitor(ctx, invitorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	recent := 0
	for _, inv := range existing {
		if inv.Recent(now, common.InviteWindow) {
			recent++
		}
	}
	if recent >= common.InviteLimit {
		return nil, common.ErrRateLimitExceeded
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		inv := &models.Invite{Code: s.newCode(), InvitorID: invitorID, CreatedAt: now}
		err := repo.Create(ctx, inv)
		if err == nil {
			s.logger.Info(ctx, "invite issued", "invitor_id", invitorID, "recent", recent+1)
			return inv, nil
		}
		if !errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Warn(ctx, "invite code collision", "attempt", attempt+1)
	}
	return nil, fmt.Errorf("issue invite: %w: no free code after %d attempts", common.ErrConflict, maxCodeAttempts)
}

// Redeem counts one registration against code.
func (s *InviteService) Redeem(ctx context.Context, code string) (*models.Invite, error) {
	if code == "" {
		return nil, common.ErrInvalidInviteCode
	}
	inv, err := s.repomanager.Invites().IncrementRedemptions(ctx, code)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidInviteCode
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Release undoes one Redeem of code.
func (s *InviteService) Release(ctx context.Context, code string) error {
	_, err := s.repomanager.Invites().DecrementRedemptions(ctx, code)
	return err
}

func (s *InviteService) ListByInvitor(ctx context.Context, invitorID string) ([]models.Invite, error) {
	if invitorID == "" {
		return nil, fmt.Errorf("%w: user_id is required", common.ErrValidation)
	}
	return s.repomanager.Invites().ListByInvitor(ctx, invitorID)
}
