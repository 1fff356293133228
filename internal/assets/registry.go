package assets

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vignette/internal/config"
	"vignette/internal/sqliteutil"
)

// Kind classifies an asset by its container extension.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
	".mkv":  {},
}

// KindForPath classifies a file by extension. Anything that is not a known
// video container is treated as an image.
func KindForPath(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	return KindImage
}

// Asset is one content-addressed media file. The id is the sha256 hex digest
// of the file contents, so the same bytes at two paths register once.
type Asset struct {
	ID            string
	Path          string
	Kind          Kind
	ThumbnailPath string
	CreatedAt     time.Time
	Rating        int
}

// Thumbnailer produces a poster image for an asset. Implementations may cache;
// failures must not prevent registration.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, sourcePath, assetID string) (string, error)
}

// Registry is the persistent asset-identity store backing path resolution.
type Registry struct {
	db     *sql.DB
	path   string
	thumbs Thumbnailer
}

// Open initializes or connects to the asset database.
func Open(cfg *config.Config) (*Registry, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "assets.db")
	db, err := sqliteutil.Open(dbPath)
	if err != nil {
		return nil, err
	}

	registry := &Registry{db: db, path: dbPath}
	if err := registry.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return registry, nil
}

// SetThumbnailer configures poster-frame generation for newly added assets.
// Without one, assets register with no thumbnail.
func (r *Registry) SetThumbnailer(thumbs Thumbnailer) {
	r.thumbs = thumbs
}

// Close closes the underlying database connection.
func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Add registers the file at path, returning the existing asset when either
// the path or the content hash is already known. New content is hashed,
// classified, thumbnailed on a best-effort basis, and inserted.
func (r *Registry) Add(ctx context.Context, path string) (*Asset, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}

	if existing, err := r.getByPath(ctx, path); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	id, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	if existing, err := r.Get(ctx, id); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	asset := &Asset{
		ID:        id,
		Path:      path,
		Kind:      KindForPath(path),
		CreatedAt: time.Now().UTC(),
	}
	if r.thumbs != nil {
		// Thumbnail failures degrade to an asset without one.
		if thumbPath, thumbErr := r.thumbs.Thumbnail(ctx, path, id); thumbErr == nil {
			asset.ThumbnailPath = thumbPath
		}
	}

	_, err = sqliteutil.ExecWithRetry(
		ctx,
		r.db,
		`INSERT INTO assets (id, path, kind, thumbnail_path, created_at, rating)
         VALUES (?, ?, ?, ?, ?, 0)`,
		asset.ID,
		asset.Path,
		asset.Kind,
		nullableString(asset.ThumbnailPath),
		asset.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}
	return r.Get(ctx, id)
}

// Get fetches one asset by id. Missing ids return nil.
func (r *Registry) Get(ctx context.Context, id string) (*Asset, error) {
	ctx = sqliteutil.EnsureContext(ctx)
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, path, kind, thumbnail_path, created_at, rating FROM assets WHERE id = ?`,
		id,
	)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// Path resolves an asset id to its registered file path.
func (r *Registry) Path(ctx context.Context, id string) (string, bool) {
	asset, err := r.Get(ctx, id)
	if err != nil || asset == nil {
		return "", false
	}
	return asset.Path, true
}

// List returns every registered asset ordered by path.
func (r *Registry) List(ctx context.Context) ([]*Asset, error) {
	ctx = sqliteutil.EnsureContext(ctx)
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, path, kind, thumbnail_path, created_at, rating FROM assets ORDER BY path`,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var list []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		list = append(list, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return list, nil
}

// Remove deletes an asset row and returns it so callers can clean up derived
// files. Missing ids return nil without error.
func (r *Registry) Remove(ctx context.Context, id string) (*Asset, error) {
	asset, err := r.Get(ctx, id)
	if err != nil || asset == nil {
		return nil, err
	}
	if _, err := sqliteutil.ExecWithRetry(ctx, r.db, `DELETE FROM assets WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("remove asset: %w", err)
	}
	return asset, nil
}

// SetRating stores a 0-5 star rating. Out-of-range values are rejected.
func (r *Registry) SetRating(ctx context.Context, id string, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating %d out of range 0-5", rating)
	}
	res, err := sqliteutil.ExecWithRetry(ctx, r.db, `UPDATE assets SET rating = ? WHERE id = ?`, rating, id)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asset %s not found", id)
	}
	return nil
}

func (r *Registry) getByPath(ctx context.Context, path string) (*Asset, error) {
	ctx = sqliteutil.EnsureContext(ctx)
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, path, kind, thumbnail_path, created_at, rating FROM assets WHERE path = ?`,
		path,
	)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by path: %w", err)
	}
	return asset, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		asset      Asset
		kind       string
		thumbnail  sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&asset.ID, &asset.Path, &kind, &thumbnail, &createdRaw, &asset.Rating); err != nil {
		return nil, err
	}
	asset.Kind = Kind(kind)
	if thumbnail.Valid {
		asset.ThumbnailPath = thumbnail.String
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		asset.CreatedAt = created
	}
	return &asset, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
