package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wasycim/cargo-notify/internal/directory"
	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/queue"
	"github.com/wasycim/cargo-notify/internal/scheduler"
	"github.com/wasycim/cargo-notify/internal/service"
	"github.com/wasycim/cargo-notify/internal/verification"
)

// User-facing strings stay in Turkish; the UI shows them verbatim.
const (
	msgMissingCredentials = "TC Kimlik No ve telefon numarasi gereklidir"
	msgInvalidNationalID  = "TC Kimlik No 11 haneli olmalidir"
	msgAccountNotFound    = "Bu bilgilere ait kullanici bulunamadi"
	msgMissingParams      = "Eksik parametreler"
	msgPhoneRequired      = "Telefon numarasi gerekli"
	msgPhoneAndCode       = "Telefon ve kod gerekli"
	msgInvalidPhone       = "Gecersiz telefon numarasi"
	msgCodeExpired        = "Kodun suresi doldu, yeni kod gonderin"
	msgCodeMismatch       = "Kod hatali, tekrar deneyin"
	msgPasswordSent       = "Sifreniz WhatsApp ile gonderildi"
	msgServerError        = "Sunucu hatasi"
)

type Handler struct {
	notifier *service.Notifier
	queue    queue.Queue
	sched    *scheduler.Scheduler
}

func NewHandler(n *service.Notifier, q queue.Queue, s *scheduler.Scheduler) *Handler {
	return &Handler{notifier: n, queue: q, sched: s}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type passwordResetRequest struct {
	TCNo    string `json:"tc_no"`
	Telefon string `json:"telefon"`
}

func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	err := h.notifier.PasswordReset(r.Context(), req.TCNo, req.Telefon)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": msgPasswordSent,
		})
	case errors.Is(err, service.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
	case errors.Is(err, service.ErrInvalidNationalID):
		writeError(w, http.StatusBadRequest, msgInvalidNationalID)
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, http.StatusNotFound, msgAccountNotFound)
	default:
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

type bulkNotifyRequest struct {
	Telefonlar []string `json:"telefonlar"`
	Mesaj      string   `json:"mesaj"`
	SubeKodu   *string  `json:"sube_kodu"`
}

func (h *Handler) BulkNotify(w http.ResponseWriter, r *http.Request) {
	var req bulkNotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	ids, err := h.notifier.BulkNotify(r.Context(), req.Telefonlar, req.Mesaj, req.SubeKodu)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(ids),
		})
	case errors.Is(err, queue.ErrEmptyBatch),
		errors.Is(err, queue.ErrEmptyMessage),
		errors.Is(err, queue.ErrEmptyPhone):
		writeError(w, http.StatusBadRequest, msgMissingParams)
	default:
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

type sendCodeRequest struct {
	Telefon string `json:"telefon"`
}

func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Telefon == "" {
		writeError(w, http.StatusBadRequest, msgPhoneRequired)
		return
	}

	code, devMode, err := h.notifier.SendCode(r.Context(), req.Telefon)
	switch {
	case err == nil && devMode:
		// No transport available: hand the code back so development
		// environments can complete the flow.
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"devCode": code,
			"devMode": true,
		})
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, service.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, msgInvalidPhone)
	default:
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

type verifyCodeRequest struct {
	Telefon string `json:"telefon"`
	Kod     string `json:"kod"`
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Telefon == "" || req.Kod == "" {
		writeError(w, http.StatusBadRequest, msgPhoneAndCode)
		return
	}

	err := h.notifier.VerifyCode(r.Context(), req.Telefon, req.Kod)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, verification.ErrCodeExpired):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   msgCodeExpired,
		})
	case errors.Is(err, verification.ErrCodeMismatch):
		// Deliberately the same message for wrong, used and never-issued.
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   msgCodeMismatch,
		})
	default:
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

// Worker-facing contract: the branch bots poll pending rows and report
// outcomes. Terminal re-marks are no-ops so a restarted bot can safely
// resubmit.

func (h *Handler) ListPendingMessages(w http.ResponseWriter, r *http.Request) {
	branch := r.URL.Query().Get("sube_kodu")
	limit := parseInt(r.URL.Query().Get("limit"), 50)

	items, err := h.queue.ListPending(r.Context(), branch, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": toMessageViews(items)})
}

func (h *Handler) MarkMessageSent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	h.finishMark(w, h.queue.MarkSent(r.Context(), id))
}

type markFailedRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) MarkMessageFailed(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return
	}

	var req markFailedRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "delivery failed"
	}

	h.finishMark(w, h.queue.MarkFailed(r.Context(), id, req.Reason))
}

func (h *Handler) finishMark(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, queue.ErrNotFound):
		writeError(w, http.StatusNotFound, msgServerError)
	case errors.Is(err, queue.ErrInvalidTransition):
		writeError(w, http.StatusConflict, msgServerError)
	default:
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

func (h *Handler) ListSentMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.queue.ListByStatus(r.Context(), model.Sent, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": toMessageViews(items)})
}

func (h *Handler) DispatcherStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) DispatcherStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) DispatcherStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

type messageView struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phoneNumber"`
	Body        string     `json:"body"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	BranchCode  *string    `json:"branchCode,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toMessageViews(msgs []model.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{
			ID:          m.ID,
			PhoneNumber: m.PhoneNumber,
			Body:        m.Body,
			Type:        string(m.Type),
			Status:      string(m.Status),
			BranchCode:  m.BranchCode,
			LastError:   m.LastError,
			SentAt:      m.SentAt,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
