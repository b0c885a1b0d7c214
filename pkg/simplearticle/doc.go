// Package simplearticle provides an editorial pipeline for articles: CRUD
// with full version history, a fixed status workflow
// (draft -> pending_render -> pending_review -> published -> archived),
// ordered image attachments with optional HTML sources stored in a pluggable
// blob store, and publication recording with engagement snapshots.
//
// The package is storage-agnostic: persistence goes through the Repository
// interface (in-memory and PostgreSQL implementations are provided under
// repo/) and binary data through the BlobStore interface (memory, fs and s3
// implementations under storage/).
package simplearticle
