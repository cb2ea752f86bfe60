package models

import "time"

// WatchHistoryRecord is the persisted "most recent position" for a title.
// At most one record exists per (user, media type, media id); a later write
// for the same triple replaces the earlier one.
type WatchHistoryRecord struct {
	UserID        string    `json:"userId"`
	MediaType     MediaType `json:"mediaType"`
	MediaID       string    `json:"mediaId"`
	SeasonNumber  *int      `json:"seasonNumber,omitempty"`
	EpisodeNumber *int      `json:"episodeNumber,omitempty"`
	EpisodeName   string    `json:"episodeName,omitempty"`
	WatchedAt     time.Time `json:"watchedAt"`
}
