package services

import "context"

type contextKey string

const (
	packageUUIDKey contextKey = "package_uuid"
	intentKey      contextKey = "intent"
	assetIDKey     contextKey = "asset_id"
	requestIDKey   contextKey = "request_id"
)

// WithPackageUUID annotates context with the emotion package identifier.
func WithPackageUUID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, packageUUIDKey, id)
}

// PackageUUIDFromContext extracts the package identifier if present.
func PackageUUIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(packageUUIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithIntent annotates context with the intent name being processed.
func WithIntent(ctx context.Context, intent string) context.Context {
	if intent == "" {
		return ctx
	}
	return context.WithValue(ctx, intentKey, intent)
}

// IntentFromContext returns the intent name if present.
func IntentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(intentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAssetID annotates context with the content-hash asset identifier.
func WithAssetID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, assetIDKey, id)
}

// AssetIDFromContext returns the asset identifier if present.
func AssetIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(assetIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
