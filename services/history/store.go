package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"freeflicks/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

var (
	ErrDBPathRequired = errors.New("database path not provided")
	ErrUserIDRequired = errors.New("user id is required")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists watch history in SQLite. The table carries a uniqueness
// constraint on (user_id, media_type, media_id); writes are upserts, so
// history holds only the most recent position per title.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database and applies
// pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, ErrDBPathRequired
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes the record, replacing any existing row for the same
// (user, media type, media id) triple.
func (s *Store) Upsert(ctx context.Context, rec models.WatchHistoryRecord) error {
	if strings.TrimSpace(rec.UserID) == "" {
		return ErrUserIDRequired
	}

	watchedAt := rec.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_history (user_id, media_type, media_id, season_number, episode_number, episode_name, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, media_type, media_id) DO UPDATE SET
			season_number  = excluded.season_number,
			episode_number = excluded.episode_number,
			episode_name   = excluded.episode_name,
			watched_at     = excluded.watched_at`,
		rec.UserID,
		string(rec.MediaType),
		rec.MediaID,
		nullableInt(rec.SeasonNumber),
		nullableInt(rec.EpisodeNumber),
		nullableString(rec.EpisodeName),
		watchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert watch history: %w", err)
	}
	return nil
}

// Get returns the record for a specific title, or nil when the user has no
// history for it.
func (s *Store) Get(ctx context.Context, userID string, mediaType models.MediaType, mediaID string) (*models.WatchHistoryRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, media_type, media_id, season_number, episode_number, episode_name, watched_at
		FROM watch_history
		WHERE user_id = ? AND media_type = ? AND media_id = ?`,
		userID, string(mediaType), mediaID,
	)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watch history: %w", err)
	}
	return rec, nil
}

// List returns all of a user's history records, most recently watched
// first. This is the read side consumed by the history listing page.
func (s *Store) List(ctx context.Context, userID string) ([]models.WatchHistoryRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, media_type, media_id, season_number, episode_number, episode_name, watched_at
		FROM watch_history
		WHERE user_id = ?
		ORDER BY watched_at DESC, media_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	records := make([]models.WatchHistoryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.WatchHistoryRecord, error) {
	var (
		rec       models.WatchHistoryRecord
		mediaType string
		season    sql.NullInt64
		episode   sql.NullInt64
		name      sql.NullString
	)
	if err := row.Scan(&rec.UserID, &mediaType, &rec.MediaID, &season, &episode, &name, &rec.WatchedAt); err != nil {
		return nil, err
	}
	rec.MediaType = models.MediaType(mediaType)
	if season.Valid {
		value := int(season.Int64)
		rec.SeasonNumber = &value
	}
	if episode.Valid {
		value := int(episode.Int64)
		rec.EpisodeNumber = &value
	}
	if name.Valid {
		rec.EpisodeName = name.String
	}
	rec.WatchedAt = rec.WatchedAt.UTC()
	return &rec, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
