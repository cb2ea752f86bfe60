package metadata

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"

	"freeflicks/models"
)

// Service resolves season/episode listings from the external catalog. It is
// read-only; the catalog is consumed, never written.
type Service struct {
	client *tmdbClient
}

// NewService constructs the catalog adapter.
func NewService(tmdbAPIKey, language string) *Service {
	return &Service{client: newTMDBClient(tmdbAPIKey, language, nil)}
}

// NewServiceWithClient allows tests to point the adapter at a stub catalog.
func NewServiceWithClient(tmdbAPIKey, language, baseURL string, httpc *http.Client) *Service {
	client := newTMDBClient(tmdbAPIKey, language, httpc)
	if strings.TrimSpace(baseURL) != "" {
		client.baseURL = baseURL
	}
	return &Service{client: client}
}

// SeasonEpisodes returns the ordered episode listing for one season. A
// catalog failure is returned as an error so the caller can offer a retry;
// a successful lookup with no episodes returns an empty slice.
func (s *Service) SeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.EpisodeReference, error) {
	payload, err := s.client.seasonDetails(ctx, seriesID, season)
	if err != nil {
		log.Printf("[metadata] season lookup failed seriesId=%s season=%d: %v", seriesID, season, err)
		return nil, err
	}

	episodes := make([]models.EpisodeReference, 0, len(payload.Episodes))
	for _, ep := range payload.Episodes {
		seasonNumber := ep.SeasonNumber
		if seasonNumber == 0 {
			seasonNumber = season
		}
		episodes = append(episodes, models.EpisodeReference{
			SeasonNumber:  seasonNumber,
			EpisodeNumber: ep.EpisodeNumber,
			Title:         strings.TrimSpace(ep.Name),
			Overview:      strings.TrimSpace(ep.Overview),
			AirDate:       strings.TrimSpace(ep.AirDate),
			StillPath:     strings.TrimSpace(ep.StillPath),
		})
	}

	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})

	return episodes, nil
}
