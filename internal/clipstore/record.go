package clipstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record is one persisted clip analysis, keyed uniquely by
// (asset_id, package_uuid, intent).
type Record struct {
	ID          int64
	AssetID     string
	PackageUUID string
	Intent      string
	RelPath     string
	LoopStart   *float64
	LoopEnd     *float64
	Duration    *float64
	Motion      *float64
	Confidence  *float64
	Tags        []string
	Embedding   []float64
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy so cached records stay isolated from callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.LoopStart = cloneFloat(r.LoopStart)
	clone.LoopEnd = cloneFloat(r.LoopEnd)
	clone.Duration = cloneFloat(r.Duration)
	clone.Motion = cloneFloat(r.Motion)
	clone.Confidence = cloneFloat(r.Confidence)
	clone.Tags = append([]string(nil), r.Tags...)
	clone.Embedding = append([]float64(nil), r.Embedding...)
	if r.Metadata != nil {
		clone.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

// Filter narrows ListClips. PackageUUID wins over PackageUUIDs when both are
// set. Empty fields mean "any".
type Filter struct {
	PackageUUID  string
	PackageUUIDs []string
	Intents      []string
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id          int64
		assetID     string
		packageUUID string
		intent      string
		relPath     string
		loopStart   sql.NullFloat64
		loopEnd     sql.NullFloat64
		duration    sql.NullFloat64
		motion      sql.NullFloat64
		confidence  sql.NullFloat64
		tagsRaw     sql.NullString
		embedRaw    sql.NullString
		metaRaw     sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&assetID,
		&packageUUID,
		&intent,
		&relPath,
		&loopStart,
		&loopEnd,
		&duration,
		&motion,
		&confidence,
		&tagsRaw,
		&embedRaw,
		&metaRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:          id,
		AssetID:     assetID,
		PackageUUID: packageUUID,
		Intent:      intent,
		RelPath:     relPath,
		LoopStart:   nullableFloat(loopStart),
		LoopEnd:     nullableFloat(loopEnd),
		Duration:    nullableFloat(duration),
		Motion:      nullableFloat(motion),
		Confidence:  nullableFloat(confidence),
	}

	if tagsRaw.Valid && tagsRaw.String != "" {
		if err := json.Unmarshal([]byte(tagsRaw.String), &record.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for clip %d: %w", id, err)
		}
	}
	if embedRaw.Valid && embedRaw.String != "" {
		if err := json.Unmarshal([]byte(embedRaw.String), &record.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding for clip %d: %w", id, err)
		}
	}
	if metaRaw.Valid && metaRaw.String != "" {
		if err := json.Unmarshal([]byte(metaRaw.String), &record.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for clip %d: %w", id, err)
		}
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableFloat(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func nullablePtr(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

// jsonOrNull marshals the value, storing NULL for empty collections the way
// the rest of the schema treats "not measured".
func jsonOrNull(value any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
