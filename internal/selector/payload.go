package selector

import "vignette/internal/clipstore"

// ClipPayload is the selector's cached view of an analyzed clip. Payloads are
// built once per cache fill and reused across selections, so they own their
// data rather than aliasing the source records.
type ClipPayload struct {
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
	Metadata    map[string]any
}

func payloadFromRecord(record *clipstore.Record) ClipPayload {
	payload := ClipPayload{
		AssetID:     record.AssetID,
		PackageUUID: record.PackageUUID,
		Intent:      record.Intent,
		RelPath:     record.RelPath,
		LoopStart:   copyFloat(record.LoopStart),
		LoopEnd:     copyFloat(record.LoopEnd),
		Duration:    copyFloat(record.Duration),
		Motion:      copyFloat(record.Motion),
		Confidence:  copyFloat(record.Confidence),
	}
	if len(record.Tags) > 0 {
		payload.Tags = append([]string(nil), record.Tags...)
	}
	if len(record.Metadata) > 0 {
		payload.Metadata = make(map[string]any, len(record.Metadata))
		for key, value := range record.Metadata {
			payload.Metadata[key] = value
		}
	}
	return payload
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
