package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vytor/templemind/internal/auth"
	"github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
)

const maxUsernameLength = 32

// Registration is a new profile with the token that identifies it.
type Registration struct {
	Profile   models.Profile `json:"profile"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ProfileService handles profile-related business logic
type ProfileService interface {
	Register(ctx context.Context, username, religion string) (*Registration, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id int64) (*models.Profile, error)
	ChangeReligion(ctx context.Context, caller models.Identity, religion string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, caller models.Identity, id int64) error
	// Identify resolves a token into an identity. Anything but a valid token
	// for an existing profile yields a guest.
	Identify(ctx context.Context, token string, guestReligion models.Religion) models.Identity
}

type profileService struct {
	profileRepo repository.ProfileRepository
	tokens      *auth.Tokens
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository, tokens *auth.Tokens) ProfileService {
	return &profileService{profileRepo: profileRepo, tokens: tokens}
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.NewValidationError("username", "cannot be empty")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", errors.NewValidationError("username", "must be at most 32 characters")
	}
	for _, r := range username {
		if unicode.IsControl(r) {
			return "", errors.NewValidationError("username", "contains control characters")
		}
	}
	return username, nil
}

func parseReligion(religion string) (models.Religion, error) {
	r, ok := models.ParseReligion(religion)
	if !ok {
		return "", errors.NewValidationError("religion", "must be one of buddhism, taoism, mazu")
	}
	return r, nil
}

func (s *profileService) Register(ctx context.Context, username, religion string) (*Registration, error) {
	log := logger.FromContext(ctx)
	log.Debug("registering profile: username=%s", username)

	name, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	rel, err := parseReligion(religion)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.Create(ctx, name, rel)
	if stderrors.Is(err, repository.ErrDuplicate) {
		return nil, errors.NewConflictError("username already taken")
	}
	if err != nil {
		log.Error("failed to create profile: %v", err)
		return nil, errors.NewInternalError(err)
	}

	token, expires, err := s.tokens.Issue(profile.ID, profile.Username)
	if err != nil {
		log.Error("failed to issue token: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("registered profile %d (%s)", profile.ID, profile.Religion)
	return &Registration{Profile: *profile, Token: token, ExpiresAt: expires}, nil
}

func (s *profileService) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing profiles")

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		log.Error("failed to list profiles: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return profiles, nil
}

func (s *profileService) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting profile: id=%d", id)

	profile, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get profile: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if profile == nil {
		return nil, errors.NewNotFoundError("profile", id)
	}

	return profile, nil
}

func (s *profileService) ChangeReligion(ctx context.Context, caller models.Identity, religion string) (*models.Profile, error) {
	log := logger.FromContext(ctx)

	if caller.Guest {
		return nil, errors.NewUnauthorizedError("register a profile to save a belief system")
	}
	rel, err := parseReligion(religion)
	if err != nil {
		return nil, err
	}

	log.Debug("changing religion: profile_id=%d religion=%s", caller.ProfileID, rel)
	if err := s.profileRepo.UpdateReligion(ctx, caller.ProfileID, rel); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("profile", caller.ProfileID)
		}
		log.Error("failed to update religion: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return s.GetProfile(ctx, caller.ProfileID)
}

func (s *profileService) DeleteProfile(ctx context.Context, caller models.Identity, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting profile: id=%d", id)

	if caller.Guest {
		return errors.NewUnauthorizedError("sign in to delete a profile")
	}
	if caller.ProfileID != id {
		return errors.NewForbiddenError("profiles can only delete themselves")
	}

	if err := s.profileRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NewNotFoundError("profile", id)
		}
		log.Error("failed to delete profile: %v", err)
		return errors.NewInternalError(err)
	}

	log.Info("deleted profile %d", id)
	return nil
}

func (s *profileService) Identify(ctx context.Context, token string, guestReligion models.Religion) models.Identity {
	guest := models.GuestIdentity(guestReligion)
	if token == "" {
		return guest
	}

	log := logger.FromContext(ctx)
	id, _, err := s.tokens.Verify(token)
	if err != nil {
		log.Debug("rejecting identity token: %v", err)
		return guest
	}

	profile, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		log.Warn("failed to load profile %d for identity: %v", id, err)
		return guest
	}
	if profile == nil {
		log.Debug("token for deleted profile %d", id)
		return guest
	}

	return models.Identity{
		ProfileID: profile.ID,
		Username:  profile.Username,
		Religion:  profile.Religion,
	}
}
