package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"gardenbot/internal/application"
	"gardenbot/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartOverhead は、マルチパートのヘッダー等に許容する追加のバイト数です
const multipartOverhead = 1 << 20

// Handler は、ガーデンデザインAPIのHTTPハンドラです
type Handler struct {
	service        *application.GardenSessionService
	maxUploadBytes int64
	newSessionID   func() string
}

// NewHandler は新しいHandlerインスタンスを作成します
func NewHandler(service *application.GardenSessionService, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		newSessionID:   uuid.NewString,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, buildOptions())
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.newSessionID()
	log.Printf("HTTPセッションを作成: %s", id)
	h.json(w, http.StatusCreated, newSessionResponse(id, domain.NewSessionState()))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	state, err := h.service.Session(r.Context(), id)
	if err != nil {
		h.fail(w, id, state, err)
		return
	}
	h.json(w, http.StatusOK, newSessionResponse(id, state))
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.ResetSession(r.Context(), id); err != nil {
		state, _ := h.service.Session(r.Context(), id)
		h.fail(w, id, state, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "bad_request", "invalid payload", nil)
		return
	}

	prefs, err := req.preferences()
	if err != nil {
		state, _ := h.service.Session(r.Context(), id)
		h.fail(w, id, state, err)
		return
	}

	state, err := h.service.SubmitGenerate(r.Context(), id, prefs)
	if err != nil {
		h.fail(w, id, state, err)
		return
	}
	h.json(w, http.StatusOK, newSessionResponse(id, state))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "bad_request", "invalid payload", nil)
		return
	}

	state, err := h.service.SubmitEdit(r.Context(), id, req.Instruction)
	if err != nil {
		h.fail(w, id, state, err)
		return
	}
	h.json(w, http.StatusOK, newSessionResponse(id, state))
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.error(w, http.StatusRequestEntityTooLarge, "too_large", "file too large", nil)
			return
		}
		h.error(w, http.StatusBadRequest, "bad_request", "missing file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.error(w, http.StatusBadRequest, "bad_request", "failed to read file", nil)
		return
	}

	state, err := h.service.UploadImage(r.Context(), id, data)
	if err != nil {
		h.fail(w, id, state, err)
		return
	}
	h.json(w, http.StatusOK, newSessionResponse(id, state))
}

func (h *Handler) SelectHistoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	state, err := h.service.SelectHistoryItem(r.Context(), id, chi.URLParam(r, "itemID"))
	if err != nil {
		h.fail(w, id, state, err)
		return
	}
	h.json(w, http.StatusOK, newSessionResponse(id, state))
}

// sessionID は、パスのセッションIDを検証して返します
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.error(w, http.StatusBadRequest, "invalid_session_id", "session id must be a uuid", nil)
		return "", false
	}
	return id.String(), true
}

// fail は、エラーと現在のセッション状態を返します
func (h *Handler) fail(w http.ResponseWriter, id string, state domain.SessionState, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("APIリクエストが失敗: セッション=%s, エラー=%v", id, err)
	}
	h.error(w, status, code, err.Error(), newSessionResponse(id, state))
}
