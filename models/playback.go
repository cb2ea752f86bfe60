package models

import (
	"errors"
	"strings"
)

// MediaType identifies the kind of title being played.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// ErrInvalidRequest is returned for malformed playback requests before any
// network or persistence action is taken.
var ErrInvalidRequest = errors.New("invalid playback request")

// PlaybackRequest identifies what the viewer wants to play. Requests are
// values: a season/episode or title change produces a new request, the old
// one is never mutated.
type PlaybackRequest struct {
	MediaType MediaType `json:"mediaType"`
	MediaID   string    `json:"mediaId"`
	Season    int       `json:"season,omitempty"`
	Episode   int       `json:"episode,omitempty"`
}

// Validate checks the request shape: movies carry no season/episode, series
// carry both or neither (neither means "seed from history or S1E1").
func (r PlaybackRequest) Validate() error {
	if strings.TrimSpace(r.MediaID) == "" {
		return ErrInvalidRequest
	}
	switch r.MediaType {
	case MediaTypeMovie:
		if r.Season != 0 || r.Episode != 0 {
			return ErrInvalidRequest
		}
	case MediaTypeSeries:
		if (r.Season == 0) != (r.Episode == 0) {
			return ErrInvalidRequest
		}
		if r.Season < 0 || r.Episode < 0 {
			return ErrInvalidRequest
		}
	default:
		return ErrInvalidRequest
	}
	return nil
}

// WithEpisode returns a copy of the request pointing at the given episode.
func (r PlaybackRequest) WithEpisode(season, episode int) PlaybackRequest {
	r.Season = season
	r.Episode = episode
	return r
}

// PlaybackView is a snapshot of a playback session, everything the
// composition layer needs to mount the embedding surface.
type PlaybackView struct {
	SessionID    string          `json:"sessionId"`
	State        string          `json:"state"`
	Request      PlaybackRequest `json:"request"`
	Provider     string          `json:"provider"`
	ProviderName string          `json:"providerName"`
	EmbedURL     string          `json:"embedUrl,omitempty"`

	// Sandbox is the iframe sandbox attribute value; empty means the
	// surface is unsandboxed.
	Sandboxed bool   `json:"sandboxed"`
	Sandbox   string `json:"sandbox,omitempty"`

	// ShowAdAdvisory is set when the active provider is ad-risk and
	// unsandboxed; the caller must render the advisory banner.
	ShowAdAdvisory bool `json:"showAdAdvisory"`

	Episode  *EpisodeReference  `json:"episode,omitempty"`
	Episodes []EpisodeReference `json:"episodes,omitempty"`
	Error    string             `json:"error,omitempty"`
}
