package clipstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"vignette/internal/config"
	"vignette/internal/sqliteutil"
)

// Store manages clip persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const clipColumns = `id, asset_id, package_uuid, intent, rel_path,
    loop_start, loop_end, duration, motion, confidence,
    tags, embedding, analysis_metadata, created_at, updated_at`

// Open initializes or connects to the clip database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "clips.db")
	db, err := sqliteutil.Open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or refreshes the analysis row for one clip. The unique key is
// (asset_id, package_uuid, intent); re-analyzing an existing clip replaces
// every analysis field but preserves created_at.
func (s *Store) Upsert(ctx context.Context, record *Record) (*Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	if record.AssetID == "" || record.PackageUUID == "" || record.Intent == "" {
		return nil, errors.New("record requires asset_id, package_uuid, and intent")
	}

	tagsJSON, err := jsonOrNull(record.Tags, len(record.Tags) == 0)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	embeddingJSON, err := jsonOrNull(record.Embedding, len(record.Embedding) == 0)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}
	metadataJSON, err := jsonOrNull(record.Metadata, len(record.Metadata) == 0)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = sqliteutil.ExecWithRetry(
		ctx,
		s.db,
		`INSERT INTO emotion_clips (
            asset_id, package_uuid, intent, rel_path,
            loop_start, loop_end, duration, motion, confidence,
            tags, embedding, analysis_metadata, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(asset_id, package_uuid, intent) DO UPDATE SET
            rel_path = excluded.rel_path,
            loop_start = excluded.loop_start,
            loop_end = excluded.loop_end,
            duration = excluded.duration,
            motion = excluded.motion,
            confidence = excluded.confidence,
            tags = excluded.tags,
            embedding = excluded.embedding,
            analysis_metadata = excluded.analysis_metadata,
            updated_at = excluded.updated_at`,
		record.AssetID,
		record.PackageUUID,
		record.Intent,
		record.RelPath,
		nullablePtr(record.LoopStart),
		nullablePtr(record.LoopEnd),
		nullablePtr(record.Duration),
		nullablePtr(record.Motion),
		nullablePtr(record.Confidence),
		tagsJSON,
		embeddingJSON,
		metadataJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert clip: %w", err)
	}

	return s.Get(ctx, record.AssetID, record.PackageUUID, record.Intent)
}

// Get fetches one clip row by its unique key. Missing rows return nil.
func (s *Store) Get(ctx context.Context, assetID, packageUUID, intent string) (*Record, error) {
	ctx = sqliteutil.EnsureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+clipColumns+` FROM emotion_clips
         WHERE asset_id = ? AND package_uuid = ? AND intent = ?`,
		assetID,
		packageUUID,
		intent,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return record, nil
}

// ListClips returns clips matching the filter ordered by package, intent, and
// asset id so output is stable across syncs.
func (s *Store) ListClips(ctx context.Context, filter Filter) ([]*Record, error) {
	ctx = sqliteutil.EnsureContext(ctx)

	query := `SELECT ` + clipColumns + ` FROM emotion_clips`
	var (
		clauses []string
		args    []any
	)
	if filter.PackageUUID != "" {
		clauses = append(clauses, "package_uuid = ?")
		args = append(args, filter.PackageUUID)
	} else if len(filter.PackageUUIDs) > 0 {
		clauses = append(clauses, "package_uuid IN ("+makePlaceholders(len(filter.PackageUUIDs))+")")
		for _, id := range filter.PackageUUIDs {
			args = append(args, id)
		}
	}
	if len(filter.Intents) > 0 {
		clauses = append(clauses, "intent IN ("+makePlaceholders(len(filter.Intents))+")")
		for _, intent := range filter.Intents {
			args = append(args, intent)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY package_uuid, intent, asset_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clips: %w", err)
	}
	return records, nil
}

// RemoveMissing deletes rows for one package intent whose asset ids are not in
// keep. An empty keep set clears the intent entirely. Returns the number of
// rows removed.
func (s *Store) RemoveMissing(ctx context.Context, packageUUID, intent string, keep []string) (int64, error) {
	query := `DELETE FROM emotion_clips WHERE package_uuid = ? AND intent = ?`
	args := []any{packageUUID, intent}
	if len(keep) > 0 {
		query += ` AND asset_id NOT IN (` + makePlaceholders(len(keep)) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := sqliteutil.ExecWithRetry(ctx, s.db, query, args...)
	if err != nil {
		return 0, fmt.Errorf("remove missing clips: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// RemovePackage deletes every row for a package. Used when the package's
// manifest disappears from the library.
func (s *Store) RemovePackage(ctx context.Context, packageUUID string) (int64, error) {
	res, err := sqliteutil.ExecWithRetry(ctx, s.db, `DELETE FROM emotion_clips WHERE package_uuid = ?`, packageUUID)
	if err != nil {
		return 0, fmt.Errorf("remove package clips: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// PackageStats summarizes stored clips for one package.
type PackageStats struct {
	PackageUUID string
	Intents     int
	Clips       int
}

// Stats reports per-package clip counts ordered by package uuid.
func (s *Store) Stats(ctx context.Context) ([]PackageStats, error) {
	ctx = sqliteutil.EnsureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT package_uuid, COUNT(DISTINCT intent), COUNT(*)
         FROM emotion_clips
         GROUP BY package_uuid
         ORDER BY package_uuid`,
	)
	if err != nil {
		return nil, fmt.Errorf("clip stats: %w", err)
	}
	defer rows.Close()

	var stats []PackageStats
	for rows.Next() {
		var entry PackageStats
		if err := rows.Scan(&entry.PackageUUID, &entry.Intents, &entry.Clips); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats = append(stats, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}
