package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
	"github.com/vytor/templemind/internal/repository/sqlstore"
	"github.com/vytor/templemind/internal/testutil"
)

type ProfileRepositorySuite struct {
	suite.Suite
	db       *db.DB
	repo     repository.ProfileRepository
	progress repository.ProgressRepository
}

func (s *ProfileRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlstore.NewProfileRepository(s.db)
	s.progress = sqlstore.NewProgressRepository(s.db)
}

func (s *ProfileRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ProfileRepositorySuite) TestCreateAndGet() {
	ctx := context.Background()

	p, err := s.repo.Create(ctx, "lotus", models.Taoism)
	s.Require().NoError(err)
	s.Assert().Greater(p.ID, int64(0))

	got, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().Equal("lotus", got.Username)
	s.Assert().Equal(models.Taoism, got.Religion)
}

func (s *ProfileRepositorySuite) TestCreate_SeedsZeroProgress() {
	ctx := context.Background()

	p, err := s.repo.Create(ctx, "lotus", models.Buddhism)
	s.Require().NoError(err)

	agg, err := s.progress.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(agg)
	s.Assert().Equal(0, agg.TotalStars)
	s.Assert().Equal(0, agg.TotalGames)
	s.Assert().Nil(agg.LastPlayedAt)
	s.Assert().Equal(0, agg.CategoryPercent[models.CategoryFocus])
}

func (s *ProfileRepositorySuite) TestCreate_DuplicateUsernameIgnoresCase() {
	ctx := context.Background()

	_, err := s.repo.Create(ctx, "Lotus", models.Buddhism)
	s.Require().NoError(err)

	_, err = s.repo.Create(ctx, "lotus", models.Mazu)
	s.Assert().ErrorIs(err, repository.ErrDuplicate)
}

func (s *ProfileRepositorySuite) TestGet_NotFound() {
	p, err := s.repo.Get(context.Background(), 99999)
	s.Assert().NoError(err)
	s.Assert().Nil(p)
}

func (s *ProfileRepositorySuite) TestGetByUsername() {
	ctx := context.Background()

	created, err := s.repo.Create(ctx, "Lotus", models.Buddhism)
	s.Require().NoError(err)

	got, err := s.repo.GetByUsername(ctx, "LOTUS")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Assert().Equal(created.ID, got.ID)

	missing, err := s.repo.GetByUsername(ctx, "nobody")
	s.Assert().NoError(err)
	s.Assert().Nil(missing)
}

func (s *ProfileRepositorySuite) TestList() {
	ctx := context.Background()

	profiles, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Assert().Empty(profiles)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.repo.Create(ctx, name, models.Buddhism)
		s.Require().NoError(err)
	}

	profiles, err = s.repo.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(profiles, 3)
	s.Assert().Equal("a", profiles[0].Username)
}

func (s *ProfileRepositorySuite) TestUpdateReligion() {
	ctx := context.Background()

	p, err := s.repo.Create(ctx, "lotus", models.Buddhism)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateReligion(ctx, p.ID, models.Mazu))
	got, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Assert().Equal(models.Mazu, got.Religion)

	s.Assert().ErrorIs(s.repo.UpdateReligion(ctx, 424242, models.Mazu), repository.ErrNotFound)
}

func (s *ProfileRepositorySuite) TestDelete_Cascades() {
	ctx := context.Background()

	p, err := s.repo.Create(ctx, "lotus", models.Buddhism)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(ctx, p.ID))

	got, err := s.repo.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Assert().Nil(got)

	agg, err := s.progress.Get(ctx, p.ID)
	s.Require().NoError(err)
	s.Assert().Nil(agg, "progress row should be deleted with its profile")

	s.Assert().ErrorIs(s.repo.Delete(ctx, p.ID), repository.ErrNotFound)
}

func TestProfileRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProfileRepositorySuite))
}
