package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
)

type profileRepository struct {
	db *db.DB
}

// NewProfileRepository creates a new ProfileRepository implementation
func NewProfileRepository(d *db.DB) repository.ProfileRepository {
	return &profileRepository{db: d}
}

func (r *profileRepository) Create(ctx context.Context, username string, religion models.Religion) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("creating profile: username=%s religion=%s", username, religion)

	p := models.Profile{Username: username, Religion: religion, CreatedAt: time.Now().UTC()}
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, r.db.Rebind(`
INSERT INTO profiles (username, religion, created_at)
VALUES (?, ?, ?)
RETURNING id
`), username, religion, p.CreatedAt).Scan(&p.ID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO user_progress (profile_id, updated_at) VALUES (?, ?)`), p.ID, p.CreatedAt)
		return err
	})
	if isUniqueViolation(err) {
		log.Debug("username already taken: %s", username)
		return nil, repository.ErrDuplicate
	}
	if err != nil {
		log.Error("failed to create profile: %v", err)
		return nil, err
	}
	log.Debug("profile created: id=%d", p.ID)
	return &p, nil
}

func (r *profileRepository) Get(ctx context.Context, id int64) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: id=%d", id)

	p, err := r.scanOne(ctx, `SELECT id, username, religion, created_at FROM profiles WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to get profile: %v", err)
	}
	return p, err
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("getting profile: username=%s", username)

	p, err := r.scanOne(ctx, `SELECT id, username, religion, created_at FROM profiles WHERE LOWER(username) = LOWER(?)`, username)
	if err != nil {
		log.Error("failed to get profile by username: %v", err)
	}
	return p, err
}

func (r *profileRepository) scanOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), arg).Scan(&p.ID, &p.Username, &p.Religion, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("listing profiles")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, religion, created_at
FROM profiles
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		log.Error("failed to list profiles: %v", err)
		return nil, err
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Religion, &p.CreatedAt); err != nil {
			log.Error("failed to scan profile row: %v", err)
			return nil, err
		}
		profiles = append(profiles, p)
	}

	log.Debug("found %d profiles", len(profiles))
	return profiles, rows.Err()
}

func (r *profileRepository) UpdateReligion(ctx context.Context, id int64, religion models.Religion) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("updating religion: profile_id=%d religion=%s", id, religion)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE profiles SET religion = ? WHERE id = ?`), religion, id)
	if err != nil {
		log.Error("failed to update religion: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the profile; progress, results, level bests and chat
// history cascade.
func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("profile_repo")
	log.Debug("deleting profile: id=%d", id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM profiles WHERE id = ?`), id)
	if err != nil {
		log.Error("failed to delete profile %d: %v", id, err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	log.Debug("profile %d deleted", id)
	return nil
}
