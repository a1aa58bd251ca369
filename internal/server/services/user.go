package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/cryptox"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// UserService registers users against invite codes.
type UserService struct {
	repomanager repomanager.RepositoryManager
	invites     *InviteService
	logger      logging.Logger
	hashPin     func(string) (string, error)
	now         func() time.Time
	newID       func() string
}

func NewUserService(m repomanager.RepositoryManager, invites *InviteService, logger logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		invites:     invites,
		logger:      logger,
		hashPin:     cryptox.HashPin,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Register redeems inviteCode and then creates a user holding hashes of both
// pins. The pins are required and must differ. If the user cannot be stored
// the redemption is released again.
func (s *UserService) Register(ctx context.Context, inviteCode, normalPin, duressPin string) (*models.User, error) {
	if inviteCode == "" {
		return nil, common.ErrInvalidInviteCode
	}
	if normalPin == "" || duressPin == "" {
		return nil, fmt.Errorf("%w: normal_pin and duress_pin are required", common.ErrValidation)
	}
	if normalPin == duressPin {
		return nil, fmt.Errorf("%w: duress_pin must differ from normal_pin", common.ErrValidation)
	}

	normalHash, err := s.hashPin(normalPin)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	duressHash, err := s.hashPin(duressPin)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	if _, err := s.invites.Redeem(ctx, inviteCode); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:         s.newID(),
		InviteCode: inviteCode,
		NormalPin:  normalHash,
		DuressPin:  duressHash,
		CreatedAt:  s.now(),
	}
	if err := s.repomanager.Users().Create(ctx, user); err != nil {
		if rerr := s.invites.Release(context.WithoutCancel(ctx), inviteCode); rerr != nil {
			s.logger.Error(ctx, "invite redemption not released after failed registration",
				"invite_code", inviteCode, "error", rerr.Error())
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	return s.repomanager.Users().GetByID(ctx, id)
}

// VerifyNormalPin returns common.ErrInvalidPin unless pin matches the user's
// normal pin.
func (s *UserService) VerifyNormalPin(ctx context.Context, id, pin string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := cryptox.VerifyPin(user.NormalPin, pin)
	if err != nil {
		return fmt.Errorf("verify pin: %w", err)
	}
	if !ok {
		return common.ErrInvalidPin
	}
	return nil
}
