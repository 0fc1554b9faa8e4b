package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/waitfree/internal/model"
	"github.com/hitoshi/waitfree/internal/validation"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Signup はIdPにアカウントを作成し、プロフィールを保存する。
	Signup(ctx context.Context, input model.SignupInput) (*model.Profile, error)
	// Login はトークンを検証し、プロフィールを返す。
	Login(ctx context.Context, token string) (*model.Profile, error)
}

// AccountHandler はサインアップとログインのHTTPハンドラー。
type AccountHandler struct {
	service   AccountServiceInterface
	validator *validation.Validator
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{
		service:   service,
		validator: validation.New(),
	}
}

type signupResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
}

type loginResponse struct {
	Message  string                 `json:"message"`
	UserData map[string]interface{} `json:"user_data"`
}

// Signup は新規ユーザーを登録する。
// POST /signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input model.SignupInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleServiceError(w, err)
		return
	}
	if err := h.validator.Struct(input); err != nil {
		handleServiceError(w, err)
		return
	}

	profile, err := h.service.Signup(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		Message: "User registered successfully",
		UID:     profile.AccountID,
	})
}

// Login はトークンを検証し、保存済みのプロフィールを返す。
// POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input model.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleServiceError(w, err)
		return
	}
	if err := h.validator.Struct(input); err != nil {
		handleServiceError(w, err)
		return
	}

	profile, err := h.service.Login(r.Context(), input.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		UserData: profile.Document(),
	})
}
