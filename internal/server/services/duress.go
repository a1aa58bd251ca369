package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// PinVerifier checks a user's normal pin. *UserService implements it.
type PinVerifier interface {
	VerifyNormalPin(ctx context.Context, userID, pin string) error
}

// TriggerRequest describes a duress alert raised by a user.
type TriggerRequest struct {
	DuressType     string
	Message        string
	Timestamp      time.Time
	AdditionalData json.RawMessage
}

// DuressService runs the duress state machine: none -> active -> cancelled,
// and back to active on the next trigger. Each user has exactly one current
// record.
type DuressService struct {
	repomanager    repomanager.RepositoryManager
	pins           PinVerifier
	logger         logging.Logger
	mapConcurrency int
	now            func() time.Time
}

func NewDuressService(m repomanager.RepositoryManager, pins PinVerifier, mapConcurrency int, logger logging.Logger) *DuressService {
	if mapConcurrency < 1 {
		mapConcurrency = 1
	}
	return &DuressService{
		repomanager:    m,
		pins:           pins,
		logger:         logger,
		mapConcurrency: mapConcurrency,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	return nil
}

// testModeLive reports whether userID enabled test mode recently enough.
func (s *DuressService) testModeLive(ctx context.Context, userID string) (bool, error) {
	tm, err := s.repomanager.TestModes().Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tm.Live(s.now()), nil
}

// Trigger makes req the user's active alert, superseding any previous one.
func (s *DuressService) Trigger(ctx context.Context, userID string, req TriggerRequest) (*models.DuressRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.DuressType == "" {
		return nil, fmt.Errorf("%w: duress_type is required", common.ErrValidation)
	}
	if len(req.AdditionalData) > 0 && !json.Valid(req.AdditionalData) {
		return nil, fmt.Errorf("%w: additional_data is not valid JSON", common.ErrValidation)
	}

	test, err := s.testModeLive(ctx, userID)
	if err != nil {
		return nil, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	rec := &models.DuressRecord{
		UserID:         userID,
		DuressType:     req.DuressType,
		Message:        req.Message,
		Timestamp:      ts.UTC(),
		State:          models.DuressActive,
		Test:           test,
		AdditionalData: req.AdditionalData,
	}
	if err := s.repomanager.Duress().Put(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "duress triggered", "user_id", userID, "type", rec.DuressType, "test", test)
	return rec, nil
}

// Cancel clears the user's active alert. It needs confirm and the normal
// pin; a wrong pin leaves the alert active. Cancelling an already cancelled
// alert succeeds without changes.
func (s *DuressService) Cancel(ctx context.Context, userID, normalPin string, confirm bool) (*models.DuressRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !confirm {
		return nil, fmt.Errorf("%w: confirmation required to cancel duress", common.ErrValidation)
	}
	if normalPin == "" {
		return nil, fmt.Errorf("%w: normal_pin is required", common.ErrValidation)
	}
	if err := s.pins.VerifyNormalPin(ctx, userID, normalPin); err != nil {
		if errors.Is(err, common.ErrInvalidPin) {
			s.logger.Warn(ctx, "duress cancel with wrong pin", "user_id", userID)
		}
		return nil, err
	}

	repo := s.repomanager.Duress()
	rec, err := repo.Cancel(ctx, userID, s.now())
	if errors.Is(err, common.ErrConflict) {
		cur, gerr := repo.Get(ctx, userID)
		if gerr != nil {
			return nil, gerr
		}
		if cur.State == models.DuressCancelled {
			return cur, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "duress cancelled", "user_id", userID)
	return rec, nil
}

// State returns the user's current record; common.ErrorNotFound when the
// user never triggered an alert.
func (s *DuressService) State(ctx context.Context, userID string) (*models.DuressRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repomanager.Duress().Get(ctx, userID)
}

// Preferences returns the stored preferences or the defaults.
func (s *DuressService) Preferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	p, err := s.repomanager.Preferences().Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePreferences replaces the stored preferences with p as a whole.
func (s *DuressService) UpdatePreferences(ctx context.Context, userID string, p models.UserPreferences) (*models.UserPreferences, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	p.UserID = userID
	if err := s.repomanager.Preferences().Put(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Checkin records the user's last known location.
func (s *DuressService) Checkin(ctx context.Context, userID, location string, at time.Time) (*models.Checkin, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", common.ErrValidation)
	}
	if at.IsZero() {
		at = s.now()
	}
	c := &models.Checkin{UserID: userID, Location: location, Timestamp: at.UTC()}
	if err := s.repomanager.Checkins().Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EnableTestMode flags alerts triggered during the next
// common.TestModeDuration as drills.
func (s *DuressService) EnableTestMode(ctx context.Context, userID string) (*models.TestMode, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	m := &models.TestMode{UserID: userID, ExpiresAt: s.now().Add(common.TestModeDuration)}
	if err := s.repomanager.TestModes().Put(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "test mode enabled", "user_id", userID, "expires_at", m.ExpiresAt)
	return m, nil
}

// MapInfo lists everyone viewerID follows with their last check-in and
// whether they are visibly under duress. An alert is visible only when it is
// active, not a drill, the followed user broadcasts and the viewer receives
// broadcasts.
func (s *DuressService) MapInfo(ctx context.Context, viewerID string) ([]models.MapInfo, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}

	edges, err := s.repomanager.Follows().ListByFollower(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.Preferences(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(edges, func(f models.Follow) string { return f.FollowedID })
	out := make([]models.MapInfo, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.mapConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			info, err := s.mapEntry(gctx, id, viewer.ReceiveDuressBroadcasts)
			if err != nil {
				return fmt.Errorf("map info for %s: %w", id, err)
			}
			out[i] = *info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DuressService) mapEntry(ctx context.Context, userID string, receive bool) (*models.MapInfo, error) {
	info := &models.MapInfo{UserID: userID}

	c, err := s.repomanager.Checkins().Get(ctx, userID)
	switch {
	case err == nil:
		info.Location = c.Location
		ts := c.Timestamp
		info.LastCheckin = &ts
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	if !receive {
		return info, nil
	}

	rec, err := s.repomanager.Duress().Get(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}
	if !rec.Active() || rec.Test {
		return info, nil
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.BroadcastDuress {
		info.Duress = true
		info.DuressType = rec.DuressType
	}
	return info, nil
}
