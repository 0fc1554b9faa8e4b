// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はクリニック利用者のプロフィールドキュメントを表す。
// AccountIDは外部IdPが払い出したアカウントIDで、ドキュメントの主キーとなる。
// 認証情報（パスワード等）はIdP側が保持し、ここには持たない。
type Profile struct {
	AccountID   string
	Email       string
	PhoneNumber string
	CreatedAt   time.Time
}

// Document はドキュメントストアに保存されるフィールドをそのまま返す。
// ログインレスポンスのuser_dataはこの内容と一致する。
func (p *Profile) Document() map[string]interface{} {
	return map[string]interface{}{
		"email":        p.Email,
		"phone_number": p.PhoneNumber,
		"created_at":   p.CreatedAt.UTC(),
	}
}

// SignupInput はサインアップ時にクライアントから受け取る入力を表す。
type SignupInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,e164"`
}

// LoginInput はログイン時にクライアントから受け取る入力を表す。
// TokenはIdPが発行したベアラートークン（Firebase IDトークン、Kratosセッショントークン）。
type LoginInput struct {
	Token string `json:"token" validate:"required,max=4096"`
}
