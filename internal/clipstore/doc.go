// Package clipstore persists clip analysis rows in SQLite and exposes the
// queries the selector and CLI read from.
//
// The Store keys every row by (asset_id, package_uuid, intent) so re-syncing a
// library refreshes analysis in place, while RemoveMissing prunes rows whose
// files disappeared. Analysis payloads that the schema cannot type natively
// (tags, embeddings, metadata) are stored as JSON text and NULLed when empty.
//
// The database is derived from the asset library rather than authoritative:
// deleting it and running a sync rebuilds every row. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package clipstore
