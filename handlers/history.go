package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"freeflicks/models"
	"freeflicks/services/history"

	"github.com/gorilla/mux"
)

type historyStore interface {
	Get(ctx context.Context, userID string, mediaType models.MediaType, mediaID string) (*models.WatchHistoryRecord, error)
	List(ctx context.Context, userID string) ([]models.WatchHistoryRecord, error)
}

var _ historyStore = (*history.Store)(nil)

type HistoryHandler struct {
	Store historyStore
}

func NewHistoryHandler(store historyStore) *HistoryHandler {
	return &HistoryHandler{Store: store}
}

// ListWatchHistory returns the viewer's recorded positions, most recent
// first.
func (h *HistoryHandler) ListWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	records, err := h.Store.List(r.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrUserIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetWatchHistory returns the viewer's recorded position for one title.
func (h *HistoryHandler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	mediaType := strings.TrimSpace(vars["mediaType"])
	mediaID := strings.TrimSpace(vars["mediaID"])
	if mediaType == "" || mediaID == "" {
		http.Error(w, "mediaType and mediaID are required", http.StatusBadRequest)
		return
	}

	record, err := h.Store.Get(r.Context(), userID, models.MediaType(mediaType), mediaID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrUserIDRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	if record == nil {
		http.Error(w, "watch history not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

func (h *HistoryHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	vars := mux.Vars(r)
	userID := strings.TrimSpace(vars["userID"])
	if userID == "" {
		http.Error(w, "user id is required", http.StatusBadRequest)
		return "", false
	}
	return userID, true
}
