// Package queryapi documents the read-side contract this pipeline feeds.
//
// The query API itself — paginated item listing, single-item fetch, theme /
// entity / sentiment-timeline / source-breakdown aggregations, and full-text
// search over title ∪ content ∪ summary with rank ordering — is an external
// collaborator, not part of this repo. It reads the same `processed_items`,
// `themes`, and `entities` tables internal/store/postgres writes, but owns no
// write path here and is out of scope for this module.
//
// Contract this repo commits to for that external reader:
//
//   - Pagination: default page size 20, max 100.
//   - Timeline granularity: one of hour, day, week, month; any other value
//     is a 400.
//   - Full-text search ranks over title, content, and summary combined.
//   - Missing item: 404. Invalid query arguments: 400. Critical subsystem
//     down: 503.
//
// This package exposes only a health stub (see Handler.ServeHealth) so the
// boundary has a concrete landing point in the module; it implements none of
// the read-side queries themselves.
package queryapi
