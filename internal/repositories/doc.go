// Package repositories implements SQLite persistence for recommendation history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [RecommendationRepository] : Recorded mood decisions with the playlists they resolved to
//
// Sequence numbers provide stable, human-readable ordering (e.g., recommendation #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
