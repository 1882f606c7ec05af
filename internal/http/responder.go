package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/group-scheduler/internal/application"
)

var (
	errBadRequestBody      = errors.New("無効なリクエスト形式です。")
	errInvalidScheduleID   = errors.New("無効なスケジュール ID です。")
	errInvalidOptionID     = errors.New("無効な候補時間 ID です。")
	errMissingSessionToken = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "同じ名前のスケジュールが既に存在します。"})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "メールアドレスまたはパスワードが正しくありません",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "セッションが無効です。再度ログインしてください。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  details,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "メールアドレスは必須です。"
	case "email is invalid":
		return "メールアドレスの形式が不正です。"
	case "email must be 255 characters or fewer":
		return "メールアドレスは 255 文字以内で指定してください。"
	case "password must be at least 6 characters":
		return "パスワードは 6 文字以上で指定してください。"
	case "password must be 50 characters or fewer":
		return "パスワードは 50 文字以内で指定してください。"
	case "name is required":
		return "名前は必須です。"
	case "name must be 100 characters or fewer":
		return "名前は 100 文字以内で指定してください。"
	case "name must be 50 characters or fewer":
		return "名前は 50 文字以内で指定してください。"
	case "date must use YYYY-MM-DD form":
		return "日付は YYYY-MM-DD 形式で指定してください。"
	case "time is required":
		return "候補時間は必須です。"
	case "time must be 50 characters or fewer":
		return "候補時間は 50 文字以内で指定してください。"
	case "related records are missing or inconsistent":
		return "関連するデータが見つからないか不整合です。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
