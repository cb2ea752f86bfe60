package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"freeflicks/models"
	"freeflicks/services/playback"
	"freeflicks/services/providers"

	"github.com/gorilla/mux"
)

type playbackManager interface {
	StartSession(ctx context.Context, userID string, req models.PlaybackRequest, providerKey providers.Key) (*playback.Session, error)
	Session(id string) (*playback.Session, error)
	CloseSession(id string)
}

var _ playbackManager = (*playback.Manager)(nil)

type providerRegistry interface {
	Keys() []providers.Key
	Describe(key providers.Key) (providers.Descriptor, error)
	DefaultKey() providers.Key
}

var _ providerRegistry = (*providers.Registry)(nil)

type PlaybackHandler struct {
	Manager  playbackManager
	Registry providerRegistry
}

func NewPlaybackHandler(manager playbackManager, registry providerRegistry) *PlaybackHandler {
	return &PlaybackHandler{Manager: manager, Registry: registry}
}

type startSessionPayload struct {
	UserID    string           `json:"userId"`
	MediaType models.MediaType `json:"mediaType"`
	MediaID   string           `json:"mediaId"`
	Season    int              `json:"season"`
	Episode   int              `json:"episode"`
	Provider  string           `json:"provider"`
}

type switchProviderPayload struct {
	Provider string `json:"provider"`
}

type switchEpisodePayload struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

type providerInfo struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	AdRisk    bool   `json:"adRisk"`
	Sandboxed bool   `json:"sandboxed"`
	Sandbox   string `json:"sandbox,omitempty"`
	Default   bool   `json:"default"`
}

// ListProviders returns the registered embed providers so the composition
// layer can render the provider picker.
func (h *PlaybackHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	keys := h.Registry.Keys()
	defaultKey := h.Registry.DefaultKey()

	infos := make([]providerInfo, 0, len(keys))
	for _, key := range keys {
		desc, err := h.Registry.Describe(key)
		if err != nil {
			continue
		}
		infos = append(infos, providerInfo{
			Key:       string(desc.Key),
			Name:      desc.Name,
			Icon:      desc.Icon,
			AdRisk:    desc.AdRisk,
			Sandboxed: desc.Sandboxed,
			Sandbox:   providers.SandboxAttribute(desc),
			Default:   desc.Key == defaultKey,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

func (h *PlaybackHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var payload startSessionPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := models.PlaybackRequest{
		MediaType: payload.MediaType,
		MediaID:   strings.TrimSpace(payload.MediaID),
		Season:    payload.Season,
		Episode:   payload.Episode,
	}

	session, err := h.Manager.StartSession(r.Context(), strings.TrimSpace(payload.UserID), req, providers.Key(payload.Provider))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, models.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, providers.ErrUnknownProvider):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session.View())
}

func (h *PlaybackHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.View())
}

func (h *PlaybackHandler) SwitchProvider(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var payload switchProviderPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := session.SwitchProvider(providers.Key(payload.Provider)); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, providers.ErrUnknownProvider):
			status = http.StatusBadRequest
		case errors.Is(err, playback.ErrSessionClosed):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.View())
}

func (h *PlaybackHandler) SwitchEpisode(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var payload switchEpisodePayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := session.SwitchEpisode(r.Context(), payload.Season, payload.Episode); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, models.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, playback.ErrSessionClosed):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.View())
}

func (h *PlaybackHandler) Retry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := session.Retry(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, playback.ErrSessionClosed) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.View())
}

func (h *PlaybackHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := strings.TrimSpace(vars["sessionID"])
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	h.Manager.CloseSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaybackHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *PlaybackHandler) requireSession(w http.ResponseWriter, r *http.Request) (*playback.Session, bool) {
	vars := mux.Vars(r)
	sessionID := strings.TrimSpace(vars["sessionID"])
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return nil, false
	}

	session, err := h.Manager.Session(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, playback.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return nil, false
	}

	return session, true
}
