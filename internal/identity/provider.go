// Package identity は外部IdP（Firebase Authentication、Ory Kratos）との連携を提供する。
// アカウントの作成、ベアラートークンの検証、補償処理としてのアカウント削除を扱う。
package identity

import (
	"context"
	"errors"
)

// Provider はIdPのインターフェース。
// 実装は複数ゴルーチンから同時に呼ばれても安全でなければならない。
type Provider interface {
	// CreateAccount はメールアドレスとパスワードでアカウントを作成し、IdPのアカウントIDを返す。
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// VerifyToken はベアラートークンを検証し、対応するアカウントIDを返す。
	VerifyToken(ctx context.Context, token string) (string, error)
	// DeleteAccount はアカウントを削除する。
	DeleteAccount(ctx context.Context, accountID string) error
}

// IdPの結果を表すセンチネルエラー。
// アダプタはSDK固有のエラーをこれらにラップして返す。
var (
	ErrEmailAlreadyExists  = errors.New("identity: email already exists")
	ErrCredentialsRejected = errors.New("identity: credentials rejected")
	ErrInvalidToken        = errors.New("identity: invalid token")
	ErrTokenExpired        = errors.New("identity: token expired")
	ErrAccountNotFound     = errors.New("identity: account not found")
	ErrProviderUnavailable = errors.New("identity: provider unavailable")
)
