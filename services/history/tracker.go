package history

import (
	"context"
	"log"
	"sync"
	"time"

	"freeflicks/models"
)

const defaultDebounce = 2 * time.Second

// UpsertStore is the persistence collaborator the tracker writes through.
type UpsertStore interface {
	Upsert(ctx context.Context, rec models.WatchHistoryRecord) error
}

var _ UpsertStore = (*Store)(nil)

// Tracker records "user is watching X" with a quiescence debounce: the
// write fires only after the debounce interval has elapsed since the most
// recent Observe for the session, and at most once per session until the
// session is reset. Unauthenticated viewers are never tracked.
type Tracker struct {
	mu       sync.Mutex
	store    UpsertStore
	debounce time.Duration
	sessions map[string]*trackerSession
}

type trackerSession struct {
	timer   *time.Timer
	gen     int
	tracked bool
}

// NewTracker builds a tracker. A non-positive debounce falls back to the
// default 2 second quiescence interval.
func NewTracker(store UpsertStore, debounce time.Duration) *Tracker {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Tracker{
		store:    store,
		debounce: debounce,
		sessions: make(map[string]*trackerSession),
	}
}

// Observe schedules a history write for the session. A repeat call within
// the debounce window cancels the pending write and starts the interval
// over. Once a write has fired for the session, further observes are no-ops
// until ResetSession.
func (t *Tracker) Observe(sessionID, userID string, req models.PlaybackRequest, episodeName string) {
	if userID == "" {
		return
	}

	rec := models.WatchHistoryRecord{
		UserID:    userID,
		MediaType: req.MediaType,
		MediaID:   req.MediaID,
	}
	if req.MediaType == models.MediaTypeSeries {
		season := req.Season
		episode := req.Episode
		rec.SeasonNumber = &season
		rec.EpisodeNumber = &episode
		rec.EpisodeName = episodeName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[sessionID]
	if !ok {
		sess = &trackerSession{}
		t.sessions[sessionID] = sess
	}
	if sess.tracked {
		return
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}

	sess.gen++
	gen := sess.gen
	sess.timer = time.AfterFunc(t.debounce, func() {
		t.fire(sessionID, gen, rec)
	})
}

// fire performs the delayed write if the scheduling generation is still
// current and the owning session still exists.
func (t *Tracker) fire(sessionID string, gen int, rec models.WatchHistoryRecord) {
	t.mu.Lock()
	sess, ok := t.sessions[sessionID]
	if !ok || sess.gen != gen || sess.tracked {
		t.mu.Unlock()
		return
	}
	sess.tracked = true
	t.mu.Unlock()

	rec.WatchedAt = time.Now().UTC()
	if err := t.store.Upsert(context.Background(), rec); err != nil {
		// Persistence failures never interrupt playback and are not retried.
		log.Printf("[tracker] failed to record watch history user=%s media=%s/%s: %v",
			rec.UserID, rec.MediaType, rec.MediaID, err)
	}
}

// ResetSession cancels any pending write and clears the "already tracked"
// marker so the session's next Observe schedules a fresh write. Called on
// provider switch and request change.
func (t *Tracker) ResetSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.gen++
	sess.tracked = false
}

// CloseSession tears the session down: any pending write is cancelled and
// will not fire afterwards.
func (t *Tracker) CloseSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}
	delete(t.sessions, sessionID)
}
