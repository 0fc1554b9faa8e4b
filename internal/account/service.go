// Package account はサインアップとログインのビジネスロジックを提供する。
// アカウント作成とトークン検証は外部IdPに、プロフィールの保存はドキュメントストアに委譲する。
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/waitfree/internal/identity"
	"github.com/hitoshi/waitfree/internal/model"
	"github.com/hitoshi/waitfree/internal/repository"
)

// defaultCallTimeout は外部呼び出し1回あたりのデフォルトのタイムアウト。
const defaultCallTimeout = 10 * time.Second

// メトリクスの結果ラベル
const (
	ResultSuccess             = "success"
	ResultEmailExists         = "email_exists"
	ResultRejected            = "rejected"
	ResultIdentityFailed      = "identity_failed"
	ResultProfileFailed       = "profile_failed"
	ResultInvalidToken        = "invalid_token"
	ResultTokenExpired        = "token_expired"
	ResultIdentityUnavailable = "identity_unavailable"
	ResultProfileNotFound     = "profile_not_found"
	ResultStoreUnavailable    = "store_unavailable"
	ResultDeleted             = "deleted"
	ResultAlreadyGone         = "already_gone"
	ResultFailed              = "failed"
)

// MetricsRecorder はサインアップ・ログインの結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordSignup(result string)
	RecordLogin(result string)
	RecordSignupRollback(result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordSignup(string)         {}
func (noopRecorder) RecordLogin(string)          {}
func (noopRecorder) RecordSignupRollback(string) {}

// ServiceConfig はアカウントサービスの設定。
type ServiceConfig struct {
	CallTimeout time.Duration // 外部呼び出し1回あたりのタイムアウト
}

// Service はサインアップとログインを提供する。
// 保持する依存はすべて初期化後読み取り専用で、複数リクエストから同時に利用できる。
type Service struct {
	provider identity.Provider
	profiles repository.ProfileRepository
	metrics  MetricsRecorder
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。metricsがnilの場合は記録しない。
func NewService(
	provider identity.Provider,
	profiles repository.ProfileRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaultCallTimeout
	}
	return &Service{
		provider: provider,
		profiles: profiles,
		metrics:  metrics,
		config:   config,
		now:      time.Now,
	}
}

// Signup はIdPにアカウントを作成し、そのアカウントIDをキーにプロフィールを保存する。
// プロフィールの保存に失敗した場合は作成したアカウントを削除する。
// 想定される失敗はすべて*model.APIErrorで返す。
func (s *Service) Signup(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
	accountID, err := s.createAccount(ctx, input.Email, input.Password)
	if err != nil {
		return nil, s.signupError(err)
	}

	profile := &model.Profile{
		AccountID:   accountID,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		// ドキュメントストアの精度に揃える
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.createProfile(ctx, profile); err != nil {
		slog.Error("failed to write profile",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSignup(ResultProfileFailed)
		s.rollback(ctx, accountID)
		return nil, model.NewProfileWriteFailedError()
	}

	slog.Info("signup completed", slog.String("account_id", accountID))
	s.metrics.RecordSignup(ResultSuccess)
	return profile, nil
}

// Login はトークンを検証し、対応するプロフィールを返す。
// 想定される失敗はすべて*model.APIErrorで返す。
func (s *Service) Login(ctx context.Context, token string) (*model.Profile, error) {
	accountID, err := s.verifyToken(ctx, token)
	if err != nil {
		return nil, s.loginError(err)
	}

	profile, err := s.findProfile(ctx, accountID)
	if err != nil {
		slog.Error("failed to read profile",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordLogin(ResultStoreUnavailable)
		return nil, model.NewProfileStoreUnavailableError()
	}
	if profile == nil {
		slog.Warn("verified account has no profile", slog.String("account_id", accountID))
		s.metrics.RecordLogin(ResultProfileNotFound)
		return nil, model.NewProfileNotFoundError()
	}

	s.metrics.RecordLogin(ResultSuccess)
	return profile, nil
}

func (s *Service) createAccount(ctx context.Context, email, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.provider.CreateAccount(ctx, email, password)
}

func (s *Service) createProfile(ctx context.Context, profile *model.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.profiles.Create(ctx, profile)
}

func (s *Service) verifyToken(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.provider.VerifyToken(ctx, token)
}

func (s *Service) findProfile(ctx context.Context, accountID string) (*model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.profiles.FindByAccountID(ctx, accountID)
}

// rollback はプロフィール保存に失敗したアカウントを削除する。
// クライアントの切断で中断されないよう、親コンテキストのキャンセルは引き継がない。
func (s *Service) rollback(ctx context.Context, accountID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CallTimeout)
	defer cancel()

	err := s.provider.DeleteAccount(ctx, accountID)
	switch {
	case err == nil:
		slog.Info("rolled back identity account", slog.String("account_id", accountID))
		s.metrics.RecordSignupRollback(ResultDeleted)
	case errors.Is(err, identity.ErrAccountNotFound):
		slog.Warn("identity account already gone during rollback", slog.String("account_id", accountID))
		s.metrics.RecordSignupRollback(ResultAlreadyGone)
	default:
		slog.Error("failed to roll back identity account; account is orphaned",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordSignupRollback(ResultFailed)
	}
}

func (s *Service) signupError(err error) error {
	switch {
	case errors.Is(err, identity.ErrEmailAlreadyExists):
		slog.Info("signup rejected: email already exists")
		s.metrics.RecordSignup(ResultEmailExists)
		return model.NewEmailAlreadyExistsError()
	case errors.Is(err, identity.ErrCredentialsRejected):
		slog.Warn("signup rejected by identity provider", slog.String("error", err.Error()))
		s.metrics.RecordSignup(ResultRejected)
		return model.NewSignupRejectedError()
	default:
		slog.Error("failed to create identity account", slog.String("error", err.Error()))
		s.metrics.RecordSignup(ResultIdentityFailed)
		return model.NewSignupFailedError()
	}
}

func (s *Service) loginError(err error) error {
	switch {
	case errors.Is(err, identity.ErrTokenExpired):
		s.metrics.RecordLogin(ResultTokenExpired)
		return model.NewTokenExpiredError()
	case errors.Is(err, identity.ErrInvalidToken):
		slog.Info("login rejected: invalid token", slog.String("error", err.Error()))
		s.metrics.RecordLogin(ResultInvalidToken)
		return model.NewInvalidTokenError()
	default:
		slog.Error("failed to verify token", slog.String("error", err.Error()))
		s.metrics.RecordLogin(ResultIdentityUnavailable)
		return model.NewIdentityUnavailableError()
	}
}
