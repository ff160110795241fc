package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/templemind/internal/auth"
	apperrors "github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
	"github.com/vytor/templemind/internal/services"
	"github.com/vytor/templemind/internal/testutil/mocks"
)

func newProfileService() (services.ProfileService, *mocks.MockProfileRepository, *auth.Tokens) {
	repo := new(mocks.MockProfileRepository)
	tokens := auth.NewTokens("test-secret-with-enough-bytes!!", time.Hour)
	return services.NewProfileService(repo, tokens), repo, tokens
}

func TestProfileService_Register(t *testing.T) {
	svc, repo, tokens := newProfileService()
	ctx := context.Background()

	repo.On("Create", mock.Anything, "lotus", models.Taoism).
		Return(&models.Profile{ID: 7, Username: "lotus", Religion: models.Taoism}, nil)

	reg, err := svc.Register(ctx, "  lotus ", "Taoism")
	require.NoError(t, err)
	assert.Equal(t, int64(7), reg.Profile.ID)
	assert.NotEmpty(t, reg.Token)

	id, claims, err := tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "lotus", claims.Username)
	repo.AssertExpectations(t)
}

func TestProfileService_Register_Validation(t *testing.T) {
	svc, repo, _ := newProfileService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "   ", "buddhism")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Register(ctx, "lotus", "pastafarian")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = svc.Register(ctx, "a-name-that-is-far-too-long-for-the-board", "mazu")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileService_Register_Duplicate(t *testing.T) {
	svc, repo, _ := newProfileService()
	repo.On("Create", mock.Anything, "lotus", models.Buddhism).Return(nil, repository.ErrDuplicate)

	_, err := svc.Register(context.Background(), "lotus", "buddhism")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	svc, repo, _ := newProfileService()
	repo.On("Get", mock.Anything, int64(3)).Return(nil, nil)

	_, err := svc.GetProfile(context.Background(), 3)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestProfileService_ChangeReligion(t *testing.T) {
	svc, repo, _ := newProfileService()
	caller := models.Identity{ProfileID: 5, Username: "lotus", Religion: models.Buddhism}

	repo.On("UpdateReligion", mock.Anything, int64(5), models.Mazu).Return(nil)
	repo.On("Get", mock.Anything, int64(5)).Return(&models.Profile{ID: 5, Username: "lotus", Religion: models.Mazu}, nil)

	p, err := svc.ChangeReligion(context.Background(), caller, "mazu")
	require.NoError(t, err)
	assert.Equal(t, models.Mazu, p.Religion)

	_, err = svc.ChangeReligion(context.Background(), models.GuestIdentity(models.Buddhism), "mazu")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestProfileService_DeleteProfile(t *testing.T) {
	svc, repo, _ := newProfileService()
	ctx := context.Background()
	caller := models.Identity{ProfileID: 5}

	err := svc.DeleteProfile(ctx, caller, 6)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))

	repo.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	require.NoError(t, svc.DeleteProfile(ctx, caller, 5))

	repo.On("Delete", mock.Anything, int64(5)).Return(repository.ErrNotFound).Once()
	err = svc.DeleteProfile(ctx, caller, 5)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestProfileService_Identify(t *testing.T) {
	svc, repo, tokens := newProfileService()
	ctx := context.Background()

	guest := svc.Identify(ctx, "", models.Mazu)
	assert.True(t, guest.Guest)
	assert.Equal(t, models.Mazu, guest.Religion)

	assert.True(t, svc.Identify(ctx, "not-a-token", "").Guest)

	token, _, err := tokens.Issue(9, "lotus")
	require.NoError(t, err)

	repo.On("Get", mock.Anything, int64(9)).Return(&models.Profile{ID: 9, Username: "lotus", Religion: models.Taoism}, nil).Once()
	id := svc.Identify(ctx, token, models.Buddhism)
	assert.False(t, id.Guest)
	assert.Equal(t, int64(9), id.ProfileID)
	assert.Equal(t, models.Taoism, id.Religion, "the stored religion wins over the guest hint")

	repo.On("Get", mock.Anything, int64(9)).Return(nil, nil).Once()
	assert.True(t, svc.Identify(ctx, token, models.Buddhism).Guest, "deleted profiles become guests")

	repo.On("Get", mock.Anything, int64(9)).Return(nil, errors.New("db down")).Once()
	assert.True(t, svc.Identify(ctx, token, models.Buddhism).Guest)
}
