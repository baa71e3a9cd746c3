package http

import (
	"net/http"
)

type markReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	profile, err := h.users.Me(r.Context(), callerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, profile)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	notifications, err := h.notifications.List(r.Context(), callerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	matched, err := h.notifications.MarkRead(r.Context(), callerID, req.NotificationIDs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]int64{"updated": matched})
}
