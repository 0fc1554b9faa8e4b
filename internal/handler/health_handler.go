package handler

import (
	"net/http"

	"github.com/hitoshi/waitfree/internal/model"
)

// welcomeMessage はルートへのGETで返す固定メッセージ。
const welcomeMessage = "Welcome to the WaitFree Clinic Backend!"

type messageResponse struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Welcome は稼働確認用の固定メッセージを返す。
// GET / （HEADはchiのGetHeadミドルウェアでGETにルーティングされる）
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: welcomeMessage})
}

// Health はhealthcheckコマンド向けの死活監視エンドポイント。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// NotFound は未定義ルートへのアクセスに統一フォーマットの404を返す。
func NotFound(w http.ResponseWriter, r *http.Request) {
	handleServiceError(w, model.NewNotFoundError())
}

// MethodNotAllowed は許可されていないメソッドに統一フォーマットの405を返す。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	handleServiceError(w, model.NewMethodNotAllowedError())
}
