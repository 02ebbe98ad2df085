package profile

import (
	"context"
	"fmt"
	"strings"

	"policyPortal/domain"
	"policyPortal/pkg/logger"
)

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uint) (domain.UserProfile, error)
	Upsert(ctx context.Context, profile *domain.UserProfile) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type profileService struct {
	profileRepo ProfileRepository
	cache       CacheInvalidator
}

func NewProfileService(profileRepo ProfileRepository, cache CacheInvalidator) *profileService {
	return &profileService{profileRepo: profileRepo, cache: cache}
}

func (s *profileService) GetProfile(ctx context.Context, userID uint) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	p, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile validates and stores the caller's profile. When appetite is
// set and tolerance is nil, the tolerance is derived from the appetite.
func (s *profileService) SaveProfile(ctx context.Context, profile *domain.UserProfile, appetite domain.RiskAppetite, tolerance *float64) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := ResolveRiskTolerance(profile, appetite, tolerance); err != nil {
		return nil, err
	}
	profile.Occupation = strings.TrimSpace(profile.Occupation)

	if err := profile.Validate(); err != nil {
		logger.Warn("rejected profile", "user_id", profile.UserID, "error", err)
		return nil, err
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		logger.Error("failed to save profile", "user_id", profile.UserID, "error", err)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Warn("failed to invalidate recommendation cache", "error", err)
		}
	}

	logger.Info("profile saved", "user_id", profile.UserID, "risk_appetite", profile.RiskAppetite())
	return profile, nil
}

// ResolveRiskTolerance sets profile.RiskTolerance from whichever form the
// caller supplied. An explicit tolerance wins over an appetite.
func ResolveRiskTolerance(profile *domain.UserProfile, appetite domain.RiskAppetite, tolerance *float64) error {
	switch {
	case tolerance != nil:
		profile.RiskTolerance = *tolerance
	case appetite != "":
		v, err := domain.ToleranceForAppetite(appetite)
		if err != nil {
			return err
		}
		profile.RiskTolerance = v
	}
	return nil
}
