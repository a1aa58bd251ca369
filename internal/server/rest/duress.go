package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/services"
)

type duressRequest struct {
	DuressType     string          `json:"duress_type"`
	Message        string          `json:"message"`
	Timestamp      string          `json:"timestamp"`
	AdditionalData json.RawMessage `json:"additional_data"`
}

type cancelRequest struct {
	NormalPin string `json:"normal_pin"`
	Confirm   bool   `json:"confirm"`
}

type checkinRequest struct {
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

// preferencesRequest is the complete new preference set; an absent field
// takes its default, true.
type preferencesRequest struct {
	BroadcastDuress         *bool `json:"broadcast_duress"`
	ReceiveDuressBroadcasts *bool `json:"receive_duress_broadcasts"`
}

func (r preferencesRequest) preferences() models.UserPreferences {
	orTrue := func(b *bool) bool { return b == nil || *b }
	return models.UserPreferences{
		BroadcastDuress:         orTrue(r.BroadcastDuress),
		ReceiveDuressBroadcasts: orTrue(r.ReceiveDuressBroadcasts),
	}
}

// parseTimestamp accepts RFC 3339; empty means "now" to the services.
func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp must be RFC 3339", common.ErrValidation)
	}
	return t, nil
}

func (h *Handler) triggerDuress(w http.ResponseWriter, r *http.Request) {
	var req duressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// a JSON null is the same as no data
	data := req.AdditionalData
	if string(data) == "null" {
		data = nil
	}

	_, err = h.svc.Duress.Trigger(r.Context(), chi.URLParam(r, "id"), services.TriggerRequest{
		DuressType:     req.DuressType,
		Message:        req.Message,
		Timestamp:      ts,
		AdditionalData: data,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Duress notification triggered")
}

func (h *Handler) duressState(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Duress.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) cancelDuress(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.svc.Duress.Cancel(r.Context(), chi.URLParam(r, "id"), req.NormalPin, req.Confirm); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Duress notification canceled")
}

func (h *Handler) requestEvidence(w http.ResponseWriter, r *http.Request) {
	up, err := h.svc.Evidence.RequestUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (h *Handler) enableTestMode(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Duress.EnableTestMode(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, fmt.Sprintf("Test mode enabled for %d minutes", int(common.TestModeDuration.Minutes())))
}

func (h *Handler) checkin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Duress.Checkin(r.Context(), chi.URLParam(r, "id"), req.Location, ts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) mapInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Duress.MapInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) preferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Duress.Preferences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	_, err := h.svc.Duress.UpdatePreferences(r.Context(), chi.URLParam(r, "id"), req.preferences())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Preferences updated")
}
