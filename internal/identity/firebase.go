package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/errorutils"
)

// FirebaseAuthClient はFirebaseProviderが利用する*auth.Clientのメソッド。
type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	DeleteUser(ctx context.Context, uid string) error
}

var _ FirebaseAuthClient = (*auth.Client)(nil)

// firebaseErrorMatchers はFirebaseのエラー判定関数の集合。
// テストではSDKのエラーを生成できないため差し替える。
type firebaseErrorMatchers struct {
	emailAlreadyExists func(error) bool
	invalidArgument    func(error) bool
	unavailable        func(error) bool
	tokenExpired       func(error) bool
	tokenInvalid       func(error) bool
	userNotFound       func(error) bool
}

func defaultFirebaseErrorMatchers() firebaseErrorMatchers {
	return firebaseErrorMatchers{
		emailAlreadyExists: auth.IsEmailAlreadyExists,
		invalidArgument:    errorutils.IsInvalidArgument,
		unavailable: func(err error) bool {
			return errorutils.IsUnavailable(err) || errorutils.IsDeadlineExceeded(err) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		tokenExpired: auth.IsIDTokenExpired,
		tokenInvalid: func(err error) bool {
			return auth.IsIDTokenInvalid(err) || auth.IsIDTokenRevoked(err)
		},
		userNotFound: auth.IsUserNotFound,
	}
}

// FirebaseProvider はFirebase AuthenticationによるProvider実装。
type FirebaseProvider struct {
	client FirebaseAuthClient
	errs   firebaseErrorMatchers
}

var _ Provider = (*FirebaseProvider)(nil)

// NewFirebaseProvider はFirebaseProviderを生成する。
func NewFirebaseProvider(client FirebaseAuthClient) *FirebaseProvider {
	return &FirebaseProvider{
		client: client,
		errs:   defaultFirebaseErrorMatchers(),
	}
}

// CreateAccount はFirebaseにメール/パスワードのユーザーを作成し、UIDを返す。
func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password)

	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		switch {
		case p.errs.emailAlreadyExists(err):
			return "", fmt.Errorf("firebase create user: %w", ErrEmailAlreadyExists)
		case p.errs.invalidArgument(err):
			return "", fmt.Errorf("firebase create user: %w: %v", ErrCredentialsRejected, err)
		case p.errs.unavailable(err):
			return "", fmt.Errorf("firebase create user: %w: %v", ErrProviderUnavailable, err)
		}
		return "", fmt.Errorf("firebase create user: %w", err)
	}
	if rec == nil || rec.UID == "" {
		return "", fmt.Errorf("firebase create user: empty uid in response")
	}

	return rec.UID, nil
}

// VerifyToken はFirebase IDトークンを検証し、UIDを返す。
func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	tok, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		switch {
		case p.errs.tokenExpired(err):
			return "", fmt.Errorf("firebase verify id token: %w", ErrTokenExpired)
		case p.errs.tokenInvalid(err):
			return "", fmt.Errorf("firebase verify id token: %w: %v", ErrInvalidToken, err)
		}
		return "", fmt.Errorf("firebase verify id token: %w: %v", ErrProviderUnavailable, err)
	}

	return tok.UID, nil
}

// DeleteAccount はFirebaseのユーザーを削除する。
func (p *FirebaseProvider) DeleteAccount(ctx context.Context, accountID string) error {
	if err := p.client.DeleteUser(ctx, accountID); err != nil {
		if p.errs.userNotFound(err) {
			return fmt.Errorf("firebase delete user %s: %w", accountID, ErrAccountNotFound)
		}
		return fmt.Errorf("firebase delete user %s: %w", accountID, err)
	}
	return nil
}
