// Package repository はプロフィールドキュメントの永続化を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/waitfree/internal/model"
)

// ErrProfileAlreadyExists は同じアカウントIDのプロフィールが既に存在することを表す。
var ErrProfileAlreadyExists = errors.New("repository: profile already exists")

// ProfileRepository はプロフィールドキュメントの永続化インターフェース。
// 実装は複数ゴルーチンから同時に呼ばれても安全でなければならない。
type ProfileRepository interface {
	// Create はプロフィールを作成する。
	// 同じAccountIDのプロフィールが既に存在する場合はErrProfileAlreadyExistsを返す。
	Create(ctx context.Context, profile *model.Profile) error

	// FindByAccountID はアカウントIDでプロフィールを取得する。見つからない場合はnilを返す。
	FindByAccountID(ctx context.Context, accountID string) (*model.Profile, error)
}
