package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
)

type saveTokenRequest struct {
	UserID     int     `json:"user_id" validate:"required,min=1"`
	FCMToken   string  `json:"fcm_token" validate:"required,min=10"`
	DeviceID   *string `json:"device_id"`
	DeviceType *string `json:"device_type" validate:"omitempty,oneof=android ios web"`
	AppVersion *string `json:"app_version"`
}

// SaveFCMToken handles POST /api/notifications/fcm-token. Re-registering
// an existing token refreshes it and reactivates it for the user.
func (h *Handler) SaveFCMToken(w http.ResponseWriter, r *http.Request) {
	var req saveTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	if err := h.ledger.SaveToken(r.Context(), req.UserID, req.FCMToken, req.DeviceID, req.DeviceType, req.AppVersion); err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal menyimpan token")
		return
	}
	respond.Success(w, http.StatusOK, "Token tersimpan", nil)
}

// NotificationsByUser handles GET /api/notifications/user/{userId} with
// optional limit/offset query parameters.
func (h *Handler) NotificationsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "User id tidak valid")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, unread, err := h.ledger.ByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat notifikasi")
		return
	}
	respond.Success(w, http.StatusOK, "", map[string]interface{}{
		"notifications": items,
		"unread_count":  unread,
	})
}

// MarkNotificationRead handles PUT /api/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	found, err := h.ledger.MarkRead(r.Context(), id)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memperbarui notifikasi")
		return
	}
	if !found {
		respond.Fail(w, http.StatusNotFound, "Notifikasi tidak ditemukan")
		return
	}
	respond.Success(w, http.StatusOK, "Notifikasi ditandai terbaca", nil)
}

// MarkAllNotificationsRead handles PUT /api/notifications/user/{userId}/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "User id tidak valid")
		return
	}
	count, err := h.ledger.MarkAllRead(r.Context(), userID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memperbarui notifikasi")
		return
	}
	respond.Success(w, http.StatusOK, "Semua notifikasi ditandai terbaca", map[string]interface{}{
		"updated": count,
	})
}

// DeleteNotification handles DELETE /api/notifications/{id}.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	found, err := h.ledger.Delete(r.Context(), id)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal menghapus notifikasi")
		return
	}
	if !found {
		respond.Fail(w, http.StatusNotFound, "Notifikasi tidak ditemukan")
		return
	}
	respond.Success(w, http.StatusOK, "Notifikasi dihapus", nil)
}
