package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"freeflicks/handlers"
	"freeflicks/models"
	"freeflicks/services/history"

	"github.com/gorilla/mux"
)

func newHistoryHandler(t *testing.T) (*handlers.HistoryHandler, *history.Store) {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to create history store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return handlers.NewHistoryHandler(store), store
}

func TestHistoryListAndGet(t *testing.T) {
	h, store := newHistoryHandler(t)

	season := 1
	episode := 2
	if err := store.Upsert(context.Background(), models.WatchHistoryRecord{
		UserID:        "u1",
		MediaType:     models.MediaTypeSeries,
		MediaID:       "1399",
		SeasonNumber:  &season,
		EpisodeNumber: &episode,
		EpisodeName:   "The Kingsroad",
	}); err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/history", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "u1"})
	rec := httptest.NewRecorder()
	h.ListWatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var records []models.WatchHistoryRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].EpisodeName != "The Kingsroad" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/users/u1/history/series/1399", nil)
	reqGet = mux.SetURLVars(reqGet, map[string]string{"userID": "u1", "mediaType": "series", "mediaID": "1399"})
	recGet := httptest.NewRecorder()
	h.GetWatchHistory(recGet, reqGet)

	if recGet.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recGet.Code)
	}

	var record models.WatchHistoryRecord
	if err := json.Unmarshal(recGet.Body.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode get response: %v", err)
	}
	if record.SeasonNumber == nil || *record.SeasonNumber != 1 {
		t.Fatalf("unexpected season: %+v", record)
	}
}

func TestHistoryGetNotFound(t *testing.T) {
	h, _ := newHistoryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/history/movie/550", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "u1", "mediaType": "movie", "mediaID": "550"})
	rec := httptest.NewRecorder()
	h.GetWatchHistory(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHistoryRequiresUserID(t *testing.T) {
	h, _ := newHistoryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users//history", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": ""})
	rec := httptest.NewRecorder()
	h.ListWatchHistory(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	h, _ := newHistoryHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/history", nil)
	req = mux.SetURLVars(req, map[string]string{"userID": "u1"})
	rec := httptest.NewRecorder()
	h.ListWatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}
