package playback

import (
	"context"
	"errors"
	"sync"

	"freeflicks/models"
	"freeflicks/services/providers"
)

// State names the playback session's position in its lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateResolving         State = "resolving"
	StateReady             State = "ready"
	StateSwitchingProvider State = "switchingProvider"
	StateSwitchingEpisode  State = "switchingEpisode"
	StateError             State = "error"
)

var ErrSessionClosed = errors.New("playback session closed")

// Session is the state machine coordinating provider selection, episode
// selection and embed address recomputation for one viewing session. It
// lives until the viewer navigates away; Close releases its resources.
type Session struct {
	mu sync.Mutex

	id     string
	userID string

	state  State
	req    models.PlaybackRequest
	desc   providers.Descriptor
	reg    *providers.Registry
	lister EpisodeLister
	track  ProgressTracker

	// episodes caches the listing for the currently selected season only;
	// it is replaced wholesale when the season changes.
	episodes     []models.EpisodeReference
	cachedSeason int
	current      *models.EpisodeReference

	embedURL string
	lastErr  string
	closed   bool
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// start drives the initial transition: movies go straight to Ready, series
// resolve their episode listing first.
func (s *Session) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveLocked(ctx)
}

// resolveLocked moves the session from its current state through Resolving
// (series only) to Ready, or to Error when the episode lookup fails.
func (s *Session) resolveLocked(ctx context.Context) {
	if s.closed {
		return
	}

	if s.req.MediaType == models.MediaTypeSeries {
		s.state = StateResolving
		if s.cachedSeason != s.req.Season || s.episodes == nil {
			episodes, err := s.lister.SeasonEpisodes(ctx, s.req.MediaID, s.req.Season)
			if err != nil {
				s.state = StateError
				s.lastErr = "episode listing unavailable"
				return
			}
			s.episodes = episodes
			s.cachedSeason = s.req.Season
		}
		if len(s.episodes) == 0 {
			// Catalog knows nothing about this season; play from the
			// beginning rather than failing the session.
			s.req = s.req.WithEpisode(1, 1)
		}
		s.current = findEpisode(s.episodes, s.req.Season, s.req.Episode)
	}

	url, err := providers.BuildURL(s.desc, s.req)
	if err != nil {
		s.state = StateError
		s.lastErr = err.Error()
		return
	}

	s.embedURL = url
	s.lastErr = ""
	s.state = StateReady
	s.observeLocked()
}

func (s *Session) observeLocked() {
	name := ""
	if s.current != nil {
		name = s.current.Title
	}
	s.track.Observe(s.id, s.userID, s.req, name)
}

// SwitchProvider changes the active provider for the same request. An
// unknown key leaves the previous provider active. A successful switch
// resets the tracking session so the new provider's playback is recorded
// independently.
func (s *Session) SwitchProvider(key providers.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	desc, err := s.reg.Describe(key)
	if err != nil {
		return err
	}
	s.desc = desc

	if s.state != StateReady {
		// The new provider takes effect when the session next reaches
		// Ready; there is no address to recompute yet.
		return nil
	}

	s.state = StateSwitchingProvider
	url, err := providers.BuildURL(s.desc, s.req)
	if err != nil {
		s.state = StateError
		s.lastErr = err.Error()
		return err
	}
	s.embedURL = url
	s.state = StateReady

	s.track.ResetSession(s.id)
	s.observeLocked()
	return nil
}

// SwitchEpisode moves a series session to another season/episode. The old
// request is superseded by a new value; the tracking session is reset so
// the new position is recorded.
func (s *Session) SwitchEpisode(ctx context.Context, season, episode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.req.MediaType != models.MediaTypeSeries || season <= 0 || episode <= 0 {
		return models.ErrInvalidRequest
	}

	s.state = StateSwitchingEpisode
	s.req = s.req.WithEpisode(season, episode)
	s.track.ResetSession(s.id)
	s.resolveLocked(ctx)
	return nil
}

// Retry re-runs resolution after a failure. It is a no-op outside the
// Error state.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateError {
		return nil
	}
	s.resolveLocked(ctx)
	return nil
}

// View returns a snapshot of the session for the composition layer.
func (s *Session) View() models.PlaybackView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := models.PlaybackView{
		SessionID:      s.id,
		State:          string(s.state),
		Request:        s.req,
		Provider:       string(s.desc.Key),
		ProviderName:   s.desc.Name,
		Sandboxed:      s.desc.Sandboxed,
		Sandbox:        providers.SandboxAttribute(s.desc),
		ShowAdAdvisory: providers.NeedsAdAdvisory(s.desc),
		Error:          s.lastErr,
	}
	if s.state == StateReady {
		view.EmbedURL = s.embedURL
	}
	if s.current != nil {
		episode := *s.current
		view.Episode = &episode
	}
	if len(s.episodes) > 0 {
		view.Episodes = make([]models.EpisodeReference, len(s.episodes))
		copy(view.Episodes, s.episodes)
	}
	return view
}

// Close tears the session down. Any pending history write is cancelled and
// will not fire after this returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.track.CloseSession(s.id)
}

func findEpisode(episodes []models.EpisodeReference, season, episode int) *models.EpisodeReference {
	for i := range episodes {
		if episodes[i].SeasonNumber == season && episodes[i].EpisodeNumber == episode {
			return &episodes[i]
		}
	}
	return nil
}
