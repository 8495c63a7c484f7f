package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"StagePasswebserver/internal/domain"
)

type notificationResponse struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Title             string          `json:"title"`
	Body              string          `json:"body"`
	Data              json.RawMessage `json:"data,omitempty"`
	RelatedEntityType string          `json:"related_entity_type,omitempty"`
	RelatedEntityID   string          `json:"related_entity_id,omitempty"`
	SentAt            string          `json:"sent_at"`
	IsDelivered       bool            `json:"is_delivered"`
	ReadAt            *string         `json:"read_at"`
}

func toNotificationResponse(l domain.NotificationLog) notificationResponse {
	resp := notificationResponse{
		ID:                l.ID,
		Type:              string(l.Type),
		Title:             l.Title,
		Body:              l.Body,
		RelatedEntityType: l.RelatedEntityType,
		RelatedEntityID:   l.RelatedEntityID,
		SentAt:            formatMillis(l.SentAt),
		IsDelivered:       l.IsDelivered,
		ReadAt:            formatMillisPtr(l.ReadAt),
	}
	if l.DataPayload != "" {
		resp.Data = json.RawMessage(l.DataPayload)
	}
	return resp
}

func (a *api) handleNotificationsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := a.inboxSvc.ListNotifications(r.Context(), u.ID, limit, offset)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]notificationResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toNotificationResponse(l))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (a *api) handleNotificationsUnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	n, err := a.inboxSvc.UnreadCount(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"unread_count": n})
}

func (a *api) handleNotificationsMarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := a.inboxSvc.MarkAsRead(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.inboxSvc.MarkAllAsRead(r.Context(), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
