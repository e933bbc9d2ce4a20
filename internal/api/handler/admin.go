package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api/respond"
	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
)

// PendingEvents handles GET /api/admin/events/pending.
func (h *Handler) PendingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Pending(r.Context())
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memuat event")
		return
	}
	respond.Success(w, http.StatusOK, "", events)
}

// ApproveEvent handles PUT /api/admin/events/{id}/approve. Approval makes
// the event visible in listings and schedulable; its next recompute picks
// the event up without waiting for a restart.
func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	h.decideEvent(w, r, event.StatusApproved)
}

// RejectEvent handles PUT /api/admin/events/{id}/reject.
func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	h.decideEvent(w, r, event.StatusRejected)
}

func (h *Handler) decideEvent(w http.ResponseWriter, r *http.Request, status string) {
	id, ok := urlID(r, "id")
	if !ok {
		respond.Fail(w, http.StatusBadRequest, "Id tidak valid")
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

	if err := h.events.SetStatus(r.Context(), id, status); err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Gagal memperbarui status event")
		return
	}
	h.cache.Invalidate("events:")

	// Tell the creator. Anonymous creators get nothing.
	if ev.CreatorID != nil {
		h.notifier.SendOne(r.Context(), notifications.Record{
			UserID:    *ev.CreatorID,
			Title:     decisionTitle(status),
			Body:      decisionBody(status, ev.Title),
			Kind:      notifications.KindEventStatus,
			RelatedID: ev.ID,
			Data: map[string]string{
				"event_title": ev.Title,
				"new_status":  status,
			},
		})
	}

	respond.Success(w, http.StatusOK, "Status event diperbarui", map[string]interface{}{
		"event_id": id,
		"status":   status,
	})
}

func decisionTitle(status string) string {
	if status == event.StatusApproved {
		return "Event Disetujui ✅"
	}
	return "Event Ditolak ❌"
}

func decisionBody(status, title string) string {
	if status == event.StatusApproved {
		return fmt.Sprintf(`Event "%s" telah disetujui dan tayang di daftar event`, title)
	}
	return fmt.Sprintf(`Event "%s" ditolak oleh admin`, title)
}
