package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	docs "github.com/RevinPahlevi/Uvent-Backend/internal/documentation"
)

type createDocumentationRequest struct {
	EventID     int     `json:"event_id" validate:"required,min=1"`
	UserID      int     `json:"user_id" validate:"required,min=1"`
	Description *string `json:"description"`
	PhotoURI    *string `json:"photo_uri" validate:"required"`
}

// CreateDocumentation handles POST /api/documentations.
func (h *Handler) CreateDocumentation(w http.ResponseWriter, r *http.Request) {
	var req createDocumentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	id, err := h.docs.Create(r.Context(), req.EventID, req.UserID, req.Description, req.PhotoURI)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal menyimpan dokumentasi")
		return
	}
	respond.Success(w, http.StatusCreated, "Dokumentasi berhasil diunggah", map[string]interface{}{
		"documentation_id": id,
	})
}

// DocumentationByEvent handles GET /api/documentations/event/{eventId}.
func (h *Handler) DocumentationByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlID(r, "eventId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Event id tidak valid")
		return
	}
	items, err := h.docs.ByEvent(r.Context(), eventID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat dokumentasi")
		return
	}
	respond.Success(w, http.StatusOK, "", items)
}

// DeleteDocumentation handles DELETE /api/documentations/{id}.
func (h *Handler) DeleteDocumentation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	var req struct {
		UserID int `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}

	err := h.docs.Delete(r.Context(), id, req.UserID)
	switch {
	case err == nil:
		respond.Success(w, http.StatusOK, "Dokumentasi dihapus", nil)
	case errors.Is(err, docs.ErrNotFound):
		respond.Fail(w, http.StatusNotFound, "Dokumentasi tidak ditemukan")
	case errors.Is(err, docs.ErrForbidden):
		respond.Fail(w, http.StatusForbidden, "Dokumentasi milik pengguna lain")
	default:
		respond.Fail(w, http.StatusInternalServerError, "Gagal menghapus dokumentasi")
	}
}
