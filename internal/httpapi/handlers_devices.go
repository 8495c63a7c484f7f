package httpapi

import (
	"net/http"
	"strings"

	"StagePasswebserver/internal/domain"
)

type registerDeviceRequest struct {
	Token      string `json:"token"`
	Platform   string `json:"platform"`
	DeviceName string `json:"device_name"`
}

type deviceResponse struct {
	ID         string `json:"id"`
	Token      string `json:"token"`
	Platform   string `json:"platform"`
	DeviceName string `json:"device_name,omitempty"`
	IsActive   bool   `json:"is_active"`
	LastUsedAt string `json:"last_used_at"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toDeviceResponse(d domain.DeviceToken) deviceResponse {
	return deviceResponse{
		ID:         d.ID,
		Token:      d.Token,
		Platform:   string(d.Platform),
		DeviceName: d.DeviceName,
		IsActive:   d.IsActive,
		LastUsedAt: formatMillis(d.LastUsedAt),
		CreatedAt:  formatMillis(d.CreatedAt),
		UpdatedAt:  formatMillis(d.UpdatedAt),
	}
}

func (a *api) handleDevicesRegister(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req registerDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	d, err := a.deviceSvc.RegisterDevice(r.Context(), u.ID, req.Token, domain.Platform(req.Platform), req.DeviceName)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toDeviceResponse(d))
}

func (a *api) handleDevicesList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	devices, err := a.deviceSvc.ListDevices(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
}

func (a *api) handleDevicesUnregister(w http.ResponseWriter, r *http.Request) {
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

	if err := a.deviceSvc.UnregisterDevice(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDevicesUnregisterByToken is unauthenticated on purpose: the push
// provider tells the app a token died long after the session that created it
// is gone. Knowing the token value is the proof of possession.
func (a *api) handleDevicesUnregisterByToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"token": "required"}))
		return
	}

	if err := a.deviceSvc.UnregisterByToken(r.Context(), token); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
