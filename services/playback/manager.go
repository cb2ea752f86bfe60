package playback

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"freeflicks/models"
	"freeflicks/services/history"
	"freeflicks/services/metadata"
	"freeflicks/services/providers"
)

var ErrSessionNotFound = errors.New("playback session not found")

// EpisodeLister resolves the episode listing for a series season.
type EpisodeLister interface {
	SeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.EpisodeReference, error)
}

// LastWatchedSource looks up the viewer's most recent position for a title.
type LastWatchedSource interface {
	Get(ctx context.Context, userID string, mediaType models.MediaType, mediaID string) (*models.WatchHistoryRecord, error)
}

// ProgressTracker records playback positions after a short holdoff.
type ProgressTracker interface {
	Observe(sessionID, userID string, req models.PlaybackRequest, episodeName string)
	ResetSession(sessionID string)
	CloseSession(sessionID string)
}

var _ EpisodeLister = (*metadata.Service)(nil)
var _ LastWatchedSource = (*history.Store)(nil)
var _ ProgressTracker = (*history.Tracker)(nil)

// Manager owns the live playback sessions.
type Manager struct {
	mu       sync.RWMutex
	registry *providers.Registry
	lister   EpisodeLister
	history  LastWatchedSource
	tracker  ProgressTracker
	sessions map[string]*Session
}

func NewManager(registry *providers.Registry, lister EpisodeLister, hist LastWatchedSource, tracker ProgressTracker) *Manager {
	return &Manager{
		registry: registry,
		lister:   lister,
		history:  hist,
		tracker:  tracker,
		sessions: make(map[string]*Session),
	}
}

// StartSession validates the request, picks the provider and drives the
// session to its first Ready or Error state. A series request without an
// explicit position resumes from the viewer's watch history when one
// exists, otherwise from the first episode. The session is returned even
// when resolution failed; its state carries the failure and Retry is
// available on it.
func (m *Manager) StartSession(ctx context.Context, userID string, req models.PlaybackRequest, providerKey providers.Key) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if providerKey == "" {
		providerKey = m.registry.DefaultKey()
	}
	desc, err := m.registry.Describe(providerKey)
	if err != nil {
		return nil, err
	}

	if req.MediaType == models.MediaTypeSeries && req.Season == 0 {
		req = m.seedFromHistory(ctx, userID, req)
	}

	s := &Session{
		id:     uuid.NewString(),
		userID: userID,
		state:  StateIdle,
		req:    req,
		desc:   desc,
		reg:    m.registry,
		lister: m.lister,
		track:  m.tracker,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.start(ctx)
	return s, nil
}

// seedFromHistory fills in the season/episode from the viewer's last
// recorded position. Lookup failures fall through to the first episode.
func (m *Manager) seedFromHistory(ctx context.Context, userID string, req models.PlaybackRequest) models.PlaybackRequest {
	if userID != "" {
		rec, err := m.history.Get(ctx, userID, req.MediaType, req.MediaID)
		if err != nil {
			log.Printf("[playback] history lookup failed for %s/%s: %v", req.MediaType, req.MediaID, err)
		} else if rec != nil && rec.SeasonNumber != nil && rec.EpisodeNumber != nil {
			return req.WithEpisode(*rec.SeasonNumber, *rec.EpisodeNumber)
		}
	}
	return req.WithEpisode(1, 1)
}

// Session returns the live session with the given id.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CloseSession closes and forgets a session. Closing an unknown session is
// not an error.
func (m *Manager) CloseSession(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}
