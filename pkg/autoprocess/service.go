package autoprocess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/finance/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Load returns the current user's settings, or the defaults when none were saved.
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) (Settings, error)
	// MarkConfirmationRequested reports whether localNow's day is the first one
	// the current user is asked to confirm on.
	MarkConfirmationRequested(ctx context.Context, localNow time.Time) (bool, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Load(ctx context.Context) (Settings, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	settings, err := s.repo.Get(ctx, userId)
	if errors.Is(err, ErrSettingsNotFound) {
		log.Debugf("no auto-processing settings for user %d, using defaults", userId)
		return DefaultSettings(), nil
	}
	return settings, err
}

func (s *ServiceImpl) Save(ctx context.Context, settings Settings) (Settings, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current user: %w", err)
	}
	settings, err = settings.Validate()
	if err != nil {
		return Settings{}, err
	}
	if err := s.repo.Store(ctx, userId, settings); err != nil {
		return Settings{}, err
	}
	log.Infof("auto-processing settings updated for user %d (enabled: %t)", userId, settings.Enabled)
	return settings, nil
}

func (s *ServiceImpl) MarkConfirmationRequested(ctx context.Context, localNow time.Time) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkConfirmationRequested(ctx, userId, localNow)
}
