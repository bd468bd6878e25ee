package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gardenbot/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   errorBody        `json:"error"`
	Session *sessionResponse `json:"session,omitempty"`
}

func (h *Handler) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("レスポンスの書き込みに失敗: %v", err)
	}
}

func (h *Handler) error(w http.ResponseWriter, status int, code, message string, session *sessionResponse) {
	h.json(w, status, errorResponse{
		Error:   errorBody{Code: code, Message: message},
		Session: session,
	})
}

// errorStatus は、エラーに対応するHTTPステータスとエラーコードを返します
func errorStatus(err error) (int, string) {
	var serviceErr *domain.ServiceError

	switch {
	case errors.Is(err, domain.ErrOperationInProgress):
		return http.StatusConflict, "operation_in_progress"
	case errors.Is(err, domain.ErrNoCurrentImage):
		return http.StatusUnprocessableEntity, "no_current_image"
	case errors.Is(err, domain.ErrEmptyInstruction):
		return http.StatusUnprocessableEntity, "empty_instruction"
	case errors.Is(err, domain.ErrInvalidPreferences):
		return http.StatusUnprocessableEntity, "invalid_preferences"
	case errors.Is(err, domain.ErrUnsupportedImage):
		return http.StatusUnprocessableEntity, "unsupported_image"
	case errors.Is(err, domain.ErrHistoryItemNotFound):
		return http.StatusNotFound, "history_item_not_found"
	case errors.Is(err, domain.ErrNoImageReturned):
		return http.StatusBadGateway, "no_image_returned"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway, "service_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
