package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/cache"
	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
)

const eventListKey = "events:list"

type createEventRequest struct {
	Title          string  `json:"title" validate:"required,min=3,max=200"`
	Type           string  `json:"type" validate:"required"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	TimeStart      string  `json:"time_start" validate:"required,datetime=15:04"`
	TimeEnd        string  `json:"time_end" validate:"required,datetime=15:04"`
	PlatformType   string  `json:"platform_type" validate:"required,oneof=online offline hybrid"`
	LocationDetail string  `json:"location_detail" validate:"required"`
	Quota          int     `json:"quota" validate:"required,min=1"`
	ThumbnailURI   *string `json:"thumbnail_uri"`
	CreatorID      *int    `json:"creator_id"`
}

// ListEvents handles GET /api/events: approved events, soonest first,
// served through the TTL+ETag cache.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if data, etag, ok := h.cache.Get(eventListKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLEventList, true)
		return
	}

	events, err := h.events.Approved(r.Context())
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}

	payload, err := json.Marshal(respond.Envelope{Status: "success", Data: events})
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}
	etag := h.cache.Set(eventListKey, payload, cache.TTLEventList)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, payload, etag, cache.TTLEventList, false)
}

// CreateEvent handles POST /api/events. New events are pending until an
// admin approves them; the scheduler ignores them until then.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.FailData(w, http.StatusUnprocessableEntity, "Validasi gagal", fieldErrors(err))
		return
	}
	if req.TimeStart == req.TimeEnd {
		respond.Fail(w, http.StatusUnprocessableEntity, "Waktu mulai dan selesai tidak boleh sama")
		return
	}

	id, err := h.events.Create(r.Context(), event.NewEvent{
		Title:          req.Title,
		Type:           req.Type,
		Date:           req.Date,
		TimeStart:      req.TimeStart,
		TimeEnd:        req.TimeEnd,
		PlatformType:   req.PlatformType,
		LocationDetail: req.LocationDetail,
		Quota:          req.Quota,
		ThumbnailURI:   req.ThumbnailURI,
		CreatorID:      req.CreatorID,
	})
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal membuat event")
		return
	}

	respond.Success(w, http.StatusCreated, "Event berhasil dibuat dan menunggu persetujuan", map[string]interface{}{
		"event_id": id,
		"status":   event.StatusPending,
	})
}

// GetEvent handles GET /api/events/{id}, served through the cache like the
// listing. Pending and rejected events resolve but are marked by status.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Event id tidak valid")
		return
	}
	key := fmt.Sprintf("events:%d", id)

	if data, etag, found := h.cache.Get(key); found {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLEventDetail, true)
		return
	}

	ev, err := h.events.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			respond.Fail(w, http.StatusNotFound, "Event tidak ditemukan")
			return
		}
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}

	payload, err := json.Marshal(respond.Envelope{Status: "success", Data: ev})
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}
	etag := h.cache.Set(key, payload, cache.TTLEventDetail)
	respond.WriteJSON(w, payload, etag, cache.TTLEventDetail, false)
}

// MyEvents handles GET /api/events/my/{userId}: events the user created,
// any approval status.
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userId")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "User id tidak valid")
		return
	}

	events, err := h.events.ByCreator(r.Context(), userID)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}
	respond.Success(w, http.StatusOK, "", events)
}
