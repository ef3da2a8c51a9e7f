package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p := &domain.Profile{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, address
		FROM user_profiles
		WHERE id = $1
	`, userID).Scan(&p.UserID, &p.Name, &p.Email, &p.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (id, name, email, address, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, address = EXCLUDED.address, updated_at = NOW()
	`, p.UserID, p.Name, p.Email, p.Address)
	return err
}
