// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"sort"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, profile, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequestBody      = "INVALID_REQUEST_BODY"
	ErrCodeValidationFailed        = "VALIDATION_FAILED"
	ErrCodeEmailAlreadyExists      = "EMAIL_ALREADY_EXISTS"
	ErrCodeSignupRejected          = "SIGNUP_REJECTED"
	ErrCodeSignupFailed            = "SIGNUP_FAILED"
	ErrCodeProfileWriteFailed      = "PROFILE_WRITE_FAILED"
	ErrCodeInvalidToken            = "INVALID_TOKEN"
	ErrCodeTokenExpired            = "TOKEN_EXPIRED"
	ErrCodeIdentityUnavailable     = "IDENTITY_UNAVAILABLE"
	ErrCodeProfileNotFound         = "PROFILE_NOT_FOUND"
	ErrCodeProfileStoreUnavailable = "PROFILE_STORE_UNAVAILABLE"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	ErrCodeInternal                = "INTERNAL_ERROR"
)

// NewInvalidRequestBodyError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequestBody,
		Message:  "Request body must be a valid JSON object.",
		Category: "validation",
		Action:   "Send a JSON body with Content-Type: application/json.",
	}
}

// NewValidationError は入力値検証エラーを生成する。
// fieldsはフィールド名から理由へのマップ。メッセージはフィールド名順に連結する。
func NewValidationError(fields map[string]string) *APIError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fields[name])
	}

	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Invalid input: %s", strings.Join(parts, "; ")),
		Category: "validation",
		Action:   "Correct the listed fields and try again.",
	}
}

// NewEmailAlreadyExistsError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyExists,
		Message:  "An account with this email address already exists.",
		Category: "auth",
		Action:   "Log in with the existing account or use a different email address.",
	}
}

// NewSignupRejectedError はIdPが認証情報を受け付けなかった場合のエラーを生成する。
func NewSignupRejectedError() *APIError {
	return &APIError{
		Code:     ErrCodeSignupRejected,
		Message:  "The identity provider rejected the supplied credentials.",
		Category: "auth",
		Action:   "Check the email address and choose a stronger password.",
	}
}

// NewSignupFailedError はIdPでのアカウント作成に失敗した場合のエラーを生成する。
func NewSignupFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeSignupFailed,
		Message:  "The account could not be created.",
		Category: "auth",
		Action:   "Please wait a moment and try again.",
	}
}

// NewProfileWriteFailedError はプロフィールの書き込みに失敗した場合のエラーを生成する。
func NewProfileWriteFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileWriteFailed,
		Message:  "The user profile could not be saved.",
		Category: "profile",
		Action:   "Please wait a moment and sign up again.",
	}
}

// NewInvalidTokenError はトークンが無効な場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "The token is invalid.",
		Category: "auth",
		Action:   "Sign in again to obtain a new token.",
	}
}

// NewTokenExpiredError はトークンの有効期限が切れている場合のエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "The token has expired.",
		Category: "auth",
		Action:   "Refresh the token and try again.",
	}
}

// NewIdentityUnavailableError はIdPに到達できない場合のエラーを生成する。
func NewIdentityUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityUnavailable,
		Message:  "The identity provider is temporarily unavailable.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}

// NewProfileNotFoundError はトークンは有効だがプロフィールが存在しない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "No profile exists for this account.",
		Category: "profile",
		Action:   "Complete signup or contact the clinic.",
	}
}

// NewProfileStoreUnavailableError はドキュメントストアの読み込みに失敗した場合のエラーを生成する。
func NewProfileStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileStoreUnavailable,
		Message:  "The profile store is temporarily unavailable.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}

// NewNotFoundError は未定義のルートへのアクセスエラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "The requested resource was not found.",
		Category: "system",
		Action:   "Check the request path.",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "The HTTP method is not allowed for this resource.",
		Category: "system",
		Action:   "Check the request method.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、利用者には一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
