package models

// EpisodeReference captures identifying information for a specific episode
// within the currently selected season.
type EpisodeReference struct {
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title,omitempty"`
	Overview      string `json:"overview,omitempty"`
	AirDate       string `json:"airDate,omitempty"`
	StillPath     string `json:"stillPath,omitempty"`
}
