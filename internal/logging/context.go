package logging

import (
	"context"
	"log/slog"

	"vignette/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPackageUUID is the standardized structured logging key for emotion package identifiers.
	FieldPackageUUID = "package_uuid"
	// FieldIntent is the standardized structured logging key for intent names.
	FieldIntent = "intent"
	// FieldAssetID is the standardized structured logging key for content-hash asset identifiers.
	FieldAssetID = "asset_id"
	// FieldPersonaID is the standardized structured logging key for persona identifiers.
	FieldPersonaID = "persona_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if pkg, ok := services.PackageUUIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPackageUUID, pkg))
	}
	if intent, ok := services.IntentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldIntent, intent))
	}
	if asset, ok := services.AssetIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAssetID, asset))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
