package api

import (
	"net/http"

	"freeflicks/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts the playback and history endpoints onto the provided
// router. The hosting application owns the router, the server and any
// authentication in front of it.
func Register(
	r *mux.Router,
	playbackHandler *handlers.PlaybackHandler,
	historyHandler *handlers.HistoryHandler,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/playback/providers", playbackHandler.ListProviders).Methods(http.MethodGet)
	api.HandleFunc("/playback/providers", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/playback/sessions", playbackHandler.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions", playbackHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.CloseSession).Methods(http.MethodDelete)
	api.HandleFunc("/playback/sessions/{sessionID}", playbackHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/provider", playbackHandler.SwitchProvider).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/provider", playbackHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/episode", playbackHandler.SwitchEpisode).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/episode", playbackHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/playback/sessions/{sessionID}/retry", playbackHandler.Retry).Methods(http.MethodPost)
	api.HandleFunc("/playback/sessions/{sessionID}/retry", playbackHandler.Options).Methods(http.MethodOptions)

	api.HandleFunc("/users/{userID}/history", historyHandler.ListWatchHistory).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/history", historyHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/users/{userID}/history/{mediaType}/{mediaID}", historyHandler.GetWatchHistory).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/history/{mediaType}/{mediaID}", historyHandler.Options).Methods(http.MethodOptions)
}
