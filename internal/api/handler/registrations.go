package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
	"github.com/RevinPahlevi/Uvent-Backend/internal/registration"
)

type createRegistrationRequest struct {
	EventID  int     `json:"event_id" validate:"required,min=1"`
	UserID   *int    `json:"user_id"` // nil for anonymous enrollment
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	NIM      string  `json:"nim" validate:"required,min=5,max=20"`
	Fakultas string  `json:"fakultas" validate:"required"`
	Jurusan  string  `json:"jurusan" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"required,min=8,max=20"`
	KRSURI   *string `json:"krs_uri"`
}

// CreateRegistration handles POST /api/registrations. Enrollment is open to
// guests: user_id stays null and the registrant gets no reminders.
func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req createRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	id, err := h.registrations.Create(r.Context(), registration.NewRegistration{
		EventID:  req.EventID,
		UserID:   req.UserID,
		Name:     req.Name,
		NIM:      req.NIM,
		Fakultas: req.Fakultas,
		Jurusan:  req.Jurusan,
		Email:    req.Email,
		Phone:    req.Phone,
		KRSURI:   req.KRSURI,
	})
	if err != nil {
		if errors.Is(err, registration.ErrDuplicate) {
			respond.Fail(w, http.StatusConflict, "NIM sudah terdaftar pada event ini")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Pendaftaran gagal")
		return
	}

	// Confirmation for account-holding registrants; guests have no inbox.
	if req.UserID != nil {
		if ev, evErr := h.events.ByID(r.Context(), req.EventID); evErr == nil {
			h.notifier.SendOne(r.Context(), notifications.Record{
				UserID:    *req.UserID,
				Title:     "Pendaftaran Berhasil 🎟️",
				Body:      fmt.Sprintf(`Kamu berhasil terdaftar di event "%s"`, ev.Title),
				Kind:      notifications.KindRegistration,
				RelatedID: ev.ID,
				Data:      map[string]string{"event_title": ev.Title},
			})
		}
	}

	respond.Success(w, http.StatusCreated, "Pendaftaran berhasil", map[string]interface{}{
		"registration_id": id,
	})
}

// RegistrationsByUser handles GET /api/registrations/user/{userId}.
func (h *Handler) RegistrationsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "User id tidak valid")
		return
	}
	regs, err := h.registrations.ByUser(r.Context(), userID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat pendaftaran")
		return
	}
	respond.Success(w, http.StatusOK, "", regs)
}

// RegistrationsByNIM handles GET /api/registrations/{nim}.
func (h *Handler) RegistrationsByNIM(w http.ResponseWriter, r *http.Request) {
	nim := chi.URLParam(r, "nim")
	if nim == "" {
		respond.Fail(w, http.StatusBadRequest, "NIM tidak valid")
		return
	}
	regs, err := h.registrations.ByNIM(r.Context(), nim)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat pendaftaran")
		return
	}
	respond.Success(w, http.StatusOK, "", regs)
}

// CancelRegistration handles DELETE /api/registrations/{id}.
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
		return
	}
	if err := h.registrations.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Pendaftaran tidak ditemukan")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Gagal membatalkan pendaftaran")
		return
	}
	respond.Success(w, http.StatusOK, "Pendaftaran dibatalkan", nil)
}

// CheckNIM handles GET /api/registrations/check-nim. Used by the edit form
// to verify a NIM is not taken by another registration on the same event.
func (h *Handler) CheckNIM(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventID, err1 := strconv.Atoi(q.Get("event_id"))
	regID, err2 := strconv.Atoi(q.Get("registration_id"))
	nim := q.Get("nim")
	if err1 != nil || err2 != nil || nim == "" || eventID <= 0 || regID <= 0 {
		respond.Fail(w, http.StatusBadRequest, "Parameter event_id, registration_id, dan nim wajib diisi")
		return
	}

	available, err := h.registrations.NIMAvailableForEdit(r.Context(), eventID, nim, regID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memeriksa NIM")
		return
	}
	respond.Success(w, http.StatusOK, "", map[string]interface{}{
		"available": available,
	})
}
