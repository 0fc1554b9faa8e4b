package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/waitfree/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

var _ ProfileRepository = (*PostgresProfileRepo)(nil)

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// Create はプロフィールを作成する。
func (r *PostgresProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (account_id, email, phone_number, created_at)
		 VALUES ($1, $2, $3, $4)`,
		profile.AccountID, profile.Email, profile.PhoneNumber, profile.CreatedAt.UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("insert profile %s: %w", profile.AccountID, ErrProfileAlreadyExists)
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

// FindByAccountID はアカウントIDでプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error) {
	profile := &model.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, email, phone_number, created_at FROM profiles WHERE account_id = $1`,
		accountID,
	).Scan(&profile.AccountID, &profile.Email, &profile.PhoneNumber, &profile.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by account ID: %w", err)
	}

	profile.CreatedAt = profile.CreatedAt.UTC()
	return profile, nil
}
