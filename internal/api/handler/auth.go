package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/user"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,min=8,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterUser handles POST /api/auth/register.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	u, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password, req.Phone, false)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respond.Fail(w, http.StatusConflict, "Email sudah terdaftar")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Registrasi gagal")
		return
	}
	respond.Success(w, http.StatusCreated, "Registrasi berhasil", u)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}

	u, token, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) || errors.Is(err, user.ErrNotFound) {
			respond.Fail(w, http.StatusUnauthorized, "Email atau password salah")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Login gagal")
		return
	}
	respond.Success(w, http.StatusOK, "Login berhasil", map[string]interface{}{
		"user":  u,
		"token": token,
	})
}
