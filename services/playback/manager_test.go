package playback_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"freeflicks/models"
	"freeflicks/services/playback"
	"freeflicks/services/providers"
)

type fakeLister struct {
	mu       sync.Mutex
	episodes []models.EpisodeReference
	err      error
	calls    int
}

func (f *fakeLister) SeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.EpisodeReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

func (f *fakeLister) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeHistory struct {
	rec *models.WatchHistoryRecord
	err error
}

func (f *fakeHistory) Get(ctx context.Context, userID string, mediaType models.MediaType, mediaID string) (*models.WatchHistoryRecord, error) {
	return f.rec, f.err
}

type fakeTracker struct {
	mu       sync.Mutex
	observes int
	resets   int
	closes   int
	lastReq  models.PlaybackRequest
}

func (f *fakeTracker) Observe(sessionID, userID string, req models.PlaybackRequest, episodeName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observes++
	f.lastReq = req
}

func (f *fakeTracker) ResetSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeTracker) CloseSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
}

func (f *fakeTracker) counts() (observes, resets, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.observes, f.resets, f.closes
}

func seasonOne() []models.EpisodeReference {
	return []models.EpisodeReference{
		{SeasonNumber: 1, EpisodeNumber: 1, Title: "Winter Is Coming"},
		{SeasonNumber: 1, EpisodeNumber: 2, Title: "The Kingsroad"},
	}
}

func newTestManager(lister *fakeLister, hist *fakeHistory, tracker *fakeTracker) *playback.Manager {
	return playback.NewManager(providers.NewRegistry(""), lister, hist, tracker)
}

func intPtr(v int) *int { return &v }

func TestStartSessionMovie(t *testing.T) {
	tracker := &fakeTracker{}
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, tracker)

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Equal(t, "videasy", view.Provider)
	require.True(t, strings.HasPrefix(view.EmbedURL, "https://player.videasy.net/movie/550?"))
	require.True(t, view.Sandboxed)
	require.NotEmpty(t, view.Sandbox)
	require.False(t, view.ShowAdAdvisory)

	observes, _, _ := tracker.counts()
	require.Equal(t, 1, observes)
}

func TestStartSessionSeriesResolvesEpisodes(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 2}, "")
	require.NoError(t, err)

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Contains(t, view.EmbedURL, "/tv/1399/1/2")
	require.NotNil(t, view.Episode)
	require.Equal(t, "The Kingsroad", view.Episode.Title)
	require.Len(t, view.Episodes, 2)
}

func TestStartSessionSeriesResumesFromHistory(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	hist := &fakeHistory{rec: &models.WatchHistoryRecord{
		UserID: "u1", MediaType: models.MediaTypeSeries, MediaID: "1399",
		SeasonNumber: intPtr(1), EpisodeNumber: intPtr(2),
	}}
	mgr := newTestManager(lister, hist, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399"}, "")
	require.NoError(t, err)

	view := session.View()
	require.Equal(t, 1, view.Request.Season)
	require.Equal(t, 2, view.Request.Episode)
	require.Contains(t, view.EmbedURL, "/tv/1399/1/2")
}

func TestStartSessionSeriesHistoryFailureFallsBackToFirstEpisode(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	hist := &fakeHistory{err: errors.New("db closed")}
	mgr := newTestManager(lister, hist, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399"}, "")
	require.NoError(t, err)

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Equal(t, 1, view.Request.Season)
	require.Equal(t, 1, view.Request.Episode)
}

func TestStartSessionSeriesEmptyListingFallsBackToFirstEpisode(t *testing.T) {
	lister := &fakeLister{episodes: []models.EpisodeReference{}}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 4, Episode: 2}, "")
	require.NoError(t, err)

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Equal(t, 1, view.Request.Season)
	require.Equal(t, 1, view.Request.Episode)
	require.Contains(t, view.EmbedURL, "/tv/1399/1/1")
	require.Nil(t, view.Episode)
}

func TestStartSessionSeriesListerFailureEntersErrorState(t *testing.T) {
	lister := &fakeLister{err: errors.New("catalog down")}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 1}, "")
	require.NoError(t, err, "resolution failure is carried by the session state, not the call")

	view := session.View()
	require.Equal(t, string(playback.StateError), view.State)
	require.NotEmpty(t, view.Error)
	require.Empty(t, view.EmbedURL)
}

func TestRetryAfterListerFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("catalog down")}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 1}, "")
	require.NoError(t, err)
	require.Equal(t, playback.StateError, session.State())

	lister.setError(nil)
	lister.mu.Lock()
	lister.episodes = seasonOne()
	lister.mu.Unlock()

	require.NoError(t, session.Retry(context.Background()))

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Empty(t, view.Error)
	require.Contains(t, view.EmbedURL, "/tv/1399/1/1")
}

func TestRetryOutsideErrorStateIsNoOp(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 1}, "")
	require.NoError(t, err)

	before := session.View()
	require.NoError(t, session.Retry(context.Background()))
	require.Equal(t, before, session.View())
}

func TestStartSessionValidation(t *testing.T) {
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, &fakeTracker{})

	_, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: ""}, "")
	require.ErrorIs(t, err, models.ErrInvalidRequest)

	_, err = mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "youtube")
	require.ErrorIs(t, err, providers.ErrUnknownProvider)
}

func TestSwitchProviderRebuildsEmbedURL(t *testing.T) {
	tracker := &fakeTracker{}
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, tracker)

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)

	require.NoError(t, session.SwitchProvider(providers.KeyMoviesAPI))

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Equal(t, "moviesapi", view.Provider)
	require.Equal(t, "https://moviesapi.club/movie/550", view.EmbedURL)
	require.False(t, view.Sandboxed)
	require.Empty(t, view.Sandbox)
	require.True(t, view.ShowAdAdvisory)

	observes, resets, _ := tracker.counts()
	require.Equal(t, 2, observes, "switch re-arms tracking")
	require.Equal(t, 1, resets)
}

func TestSwitchProviderUnknownKeepsCurrentProvider(t *testing.T) {
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)

	before := session.View()
	require.ErrorIs(t, session.SwitchProvider("youtube"), providers.ErrUnknownProvider)
	require.Equal(t, before, session.View())
}

func TestSwitchEpisode(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	tracker := &fakeTracker{}
	mgr := newTestManager(lister, &fakeHistory{}, tracker)

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 1}, "")
	require.NoError(t, err)

	require.NoError(t, session.SwitchEpisode(context.Background(), 1, 2))

	view := session.View()
	require.Equal(t, string(playback.StateReady), view.State)
	require.Contains(t, view.EmbedURL, "/tv/1399/1/2")
	require.Equal(t, "The Kingsroad", view.Episode.Title)

	_, resets, _ := tracker.counts()
	require.Equal(t, 1, resets)
	require.Equal(t, 2, tracker.lastReq.Episode)
}

func TestSwitchEpisodeReusesCachedSeason(t *testing.T) {
	lister := &fakeLister{episodes: seasonOne()}
	mgr := newTestManager(lister, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeSeries, MediaID: "1399", Season: 1, Episode: 1}, "")
	require.NoError(t, err)
	require.NoError(t, session.SwitchEpisode(context.Background(), 1, 2))

	lister.mu.Lock()
	calls := lister.calls
	lister.mu.Unlock()
	require.Equal(t, 1, calls, "same-season switch must not re-fetch the listing")
}

func TestSwitchEpisodeOnMovieRejected(t *testing.T) {
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)

	require.ErrorIs(t, session.SwitchEpisode(context.Background(), 1, 2), models.ErrInvalidRequest)
}

func TestCloseSession(t *testing.T) {
	tracker := &fakeTracker{}
	mgr := newTestManager(&fakeLister{}, &fakeHistory{}, tracker)

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)

	mgr.CloseSession(session.ID())

	_, _, closes := tracker.counts()
	require.Equal(t, 1, closes)

	_, err = mgr.Session(session.ID())
	require.ErrorIs(t, err, playback.ErrSessionNotFound)

	require.ErrorIs(t, session.SwitchProvider(providers.KeyVidora), playback.ErrSessionClosed)
	require.ErrorIs(t, session.Retry(context.Background()), playback.ErrSessionClosed)
}

func TestStartSessionUsesConfiguredDefaultProvider(t *testing.T) {
	mgr := playback.NewManager(providers.NewRegistry("vidora"), &fakeLister{}, &fakeHistory{}, &fakeTracker{})

	session, err := mgr.StartSession(context.Background(), "u1",
		models.PlaybackRequest{MediaType: models.MediaTypeMovie, MediaID: "550"}, "")
	require.NoError(t, err)
	require.Equal(t, "vidora", session.View().Provider)
}
