package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/feedback"
)

type createFeedbackRequest struct {
	EventID  int     `json:"event_id" validate:"required,min=1"`
	UserID   int     `json:"user_id" validate:"required,min=1"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Review   *string `json:"review"`
	PhotoURI *string `json:"photo_uri"`
}

type updateFeedbackRequest struct {
	UserID   int     `json:"user_id" validate:"required,min=1"`
	Rating   *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Review   *string `json:"review"`
	PhotoURI *string `json:"photo_uri"`
}

// CreateFeedback handles POST /api/feedback. One feedback per user per
// event; a second submission conflicts.
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	id, err := h.feedbacks.Create(r.Context(), req.EventID, req.UserID, req.Rating, req.Review, req.PhotoURI)
	if err != nil {
		if errors.Is(err, feedback.ErrDuplicate) {
			respond.Fail(w, http.StatusConflict, "Feedback sudah pernah dikirim untuk event ini")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Gagal menyimpan feedback")
		return
	}
	respond.Success(w, http.StatusCreated, "Feedback berhasil dikirim", map[string]interface{}{
		"feedback_id": id,
	})
}

// FeedbackByEvent handles GET /api/feedback/event/{eventId}.
func (h *Handler) FeedbackByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlID(r, "eventId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Event id tidak valid")
		return
	}
	items, err := h.feedbacks.ByEvent(r.Context(), eventID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat feedback")
		return
	}
	respond.Success(w, http.StatusOK, "", items)
}

// UpdateFeedback handles PUT /api/feedback/{id}. Only the author may edit.
func (h *Handler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	var req updateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	err := h.feedbacks.Update(r.Context(), id, req.UserID, req.Rating, req.Review, req.PhotoURI)
	if err != nil {
		h.writeFeedbackError(w, err)
		return
	}
	respond.Success(w, http.StatusOK, "Feedback diperbarui", nil)
}

// DeleteFeedback handles DELETE /api/feedback/{id}.
func (h *Handler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	var req struct {
		UserID int `json:"user_id" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}

	if err := h.feedbacks.Delete(r.Context(), id, req.UserID); err != nil {
		h.writeFeedbackError(w, err)
		return
	}
	respond.Success(w, http.StatusOK, "Feedback dihapus", nil)
}

func (h *Handler) writeFeedbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "Feedback tidak ditemukan")
	case errors.Is(err, feedback.ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "Feedback milik pengguna lain")
	default:
		respond.Fail(w, http.StatusInternalServerError, "Gagal memproses feedback")
	}
}
