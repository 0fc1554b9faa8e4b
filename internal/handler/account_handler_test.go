package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/waitfree/internal/middleware"
	"github.com/hitoshi/waitfree/internal/model"
)

// --- モック定義 ---

// mockAccountService はAccountServiceInterfaceのモック実装。
type mockAccountService struct {
	signupFn func(ctx context.Context, input model.SignupInput) (*model.Profile, error)
	loginFn  func(ctx context.Context, token string) (*model.Profile, error)
}

func (m *mockAccountService) Signup(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAccountService) Login(ctx context.Context, token string) (*model.Profile, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

var _ AccountServiceInterface = (*mockAccountService)(nil)

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- POST /signup テスト ---

func TestAccountHandler_Signup_Success(t *testing.T) {
	svc := &mockAccountService{
		signupFn: func(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
			if input.Email != "patient@example.com" || input.Password != "secret1" || input.PhoneNumber != "+819012345678" {
				t.Errorf("unexpected input: %+v", input)
			}
			return &model.Profile{AccountID: "uid-1", Email: input.Email}, nil
		},
	}
	h := NewAccountHandler(svc)

	w := postJSON(t, h.Signup, "/signup",
		`{"email":"patient@example.com","password":"secret1","phone_number":"+819012345678"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusCreated, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["message"] != "User registered successfully" {
		t.Errorf("message = %q, want %q", body["message"], "User registered successfully")
	}
	if body["uid"] != "uid-1" {
		t.Errorf("uid = %q, want %q", body["uid"], "uid-1")
	}
}

func TestAccountHandler_Signup_BadInput_Returns400WithoutCallingService(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"empty body", "", model.ErrCodeInvalidRequestBody},
		{"malformed json", `{"email":`, model.ErrCodeInvalidRequestBody},
		{"array", `[]`, model.ErrCodeInvalidRequestBody},
		{"trailing garbage", `{"email":"a@example.com","password":"secret1"} trailing-garbage`, model.ErrCodeInvalidRequestBody},
		{"two objects", `{"email":"a@example.com","password":"secret1"}{"email":"b@example.com"}`, model.ErrCodeInvalidRequestBody},
		{"missing email", `{"password":"secret1"}`, model.ErrCodeValidationFailed},
		{"bad email", `{"email":"nope","password":"secret1"}`, model.ErrCodeValidationFailed},
		{"short password", `{"email":"a@example.com","password":"123"}`, model.ErrCodeValidationFailed},
		{"bad phone", `{"email":"a@example.com","password":"secret1","phone_number":"0901234"}`, model.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				signupFn: func(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
					t.Error("service must not be called for invalid input")
					return nil, nil
				},
			}
			h := NewAccountHandler(svc)

			w := postJSON(t, h.Signup, "/signup", tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			body := decodeErrorBody(t, w)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestAccountHandler_Signup_OversizedBody_Returns400(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	big := `{"email":"a@example.com","password":"` + strings.Repeat("x", maxRequestBodyBytes) + `"}`
	w := postJSON(t, h.Signup, "/signup", big)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeInvalidRequestBody {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequestBody)
	}
}

func TestAccountHandler_Signup_ServiceErrors_Return400(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
	}{
		{"duplicate", model.NewEmailAlreadyExistsError()},
		{"rejected", model.NewSignupRejectedError()},
		{"failed", model.NewSignupFailedError()},
		{"profile write", model.NewProfileWriteFailedError()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				signupFn: func(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
					return nil, tt.err
				},
			}
			h := NewAccountHandler(svc)

			w := postJSON(t, h.Signup, "/signup", `{"email":"a@example.com","password":"secret1"}`)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			body := decodeErrorBody(t, w)
			if body.Code != tt.err.Code {
				t.Errorf("code = %q, want %q", body.Code, tt.err.Code)
			}
			if body.Error != tt.err.Message {
				t.Errorf("error = %q, want %q", body.Error, tt.err.Message)
			}
		})
	}
}

func TestAccountHandler_Signup_UnexpectedError_Returns500(t *testing.T) {
	svc := &mockAccountService{
		signupFn: func(ctx context.Context, input model.SignupInput) (*model.Profile, error) {
			return nil, errors.New("raw sdk failure: secret detail")
		},
	}
	h := NewAccountHandler(svc)

	w := postJSON(t, h.Signup, "/signup", `{"email":"a@example.com","password":"secret1"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "secret detail") {
		t.Error("internal error details must not leak into the response")
	}
}

// --- POST /login テスト ---

func TestAccountHandler_Login_Success(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	svc := &mockAccountService{
		loginFn: func(ctx context.Context, token string) (*model.Profile, error) {
			if token != "id-token" {
				t.Errorf("token = %q, want %q", token, "id-token")
			}
			return &model.Profile{
				AccountID:   "uid-1",
				Email:       "patient@example.com",
				PhoneNumber: "+819012345678",
				CreatedAt:   created,
			}, nil
		},
	}
	h := NewAccountHandler(svc)

	w := postJSON(t, h.Login, "/login", `{"token":"id-token"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var body struct {
		Message  string            `json:"message"`
		UserData map[string]string `json:"user_data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Message != "Login successful" {
		t.Errorf("message = %q, want %q", body.Message, "Login successful")
	}
	want := map[string]string{
		"email":        "patient@example.com",
		"phone_number": "+819012345678",
		"created_at":   "2026-04-01T09:30:00Z",
	}
	for k, v := range want {
		if body.UserData[k] != v {
			t.Errorf("user_data[%s] = %q, want %q", k, body.UserData[k], v)
		}
	}
	if len(body.UserData) != len(want) {
		t.Errorf("user_data has %d fields, want %d: %v", len(body.UserData), len(want), body.UserData)
	}
}

func TestAccountHandler_Login_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *model.APIError
		wantStatus int
	}{
		{"invalid token", model.NewInvalidTokenError(), http.StatusUnauthorized},
		{"expired token", model.NewTokenExpiredError(), http.StatusUnauthorized},
		{"identity down", model.NewIdentityUnavailableError(), http.StatusServiceUnavailable},
		{"no profile", model.NewProfileNotFoundError(), http.StatusNotFound},
		{"store down", model.NewProfileStoreUnavailableError(), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountService{
				loginFn: func(ctx context.Context, token string) (*model.Profile, error) {
					return nil, tt.err
				},
			}
			h := NewAccountHandler(svc)

			w := postJSON(t, h.Login, "/login", `{"token":"t"}`)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body := decodeErrorBody(t, w); body.Code != tt.err.Code {
				t.Errorf("code = %q, want %q", body.Code, tt.err.Code)
			}
		})
	}
}

func TestAccountHandler_Login_MissingToken_Returns400(t *testing.T) {
	h := NewAccountHandler(&mockAccountService{})

	for _, body := range []string{`{}`, `{"token":""}`, `not json`} {
		w := postJSON(t, h.Login, "/login", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

func TestMapAPIErrorToHTTPStatus_UnknownCode_Returns500(t *testing.T) {
	got := mapAPIErrorToHTTPStatus(&model.APIError{Code: "SOMETHING_ELSE"})
	if got != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestDecodeJSON_NullBody_DecodesToZeroValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("null"))
	w := httptest.NewRecorder()

	var input model.LoginInput
	if err := decodeJSON(w, req, &input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Token != "" {
		t.Errorf("Token = %q, want empty", input.Token)
	}
}

func TestDecodeJSON_TrailingWhitespace_IsAccepted(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{\"token\":\"tok\"}\n\t "))
	w := httptest.NewRecorder()

	var input model.LoginInput
	if err := decodeJSON(w, req, &input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Token != "tok" {
		t.Errorf("Token = %q, want %q", input.Token, "tok")
	}
}
