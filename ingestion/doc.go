// Package ingestion provides pipeline orchestration for loading corpus
// documents.
//
// The Pipeline type manages the ingestion workflow for corpus sources, including:
//   - Splitting long-form sources into chunks per a ChunkPolicy
//   - Writing documents to storage immediately, so they are keyword-searchable
//     before their embeddings exist
//   - Generating embeddings asynchronously on a worker pool
//
// Sources whose content fingerprint matches the stored document are skipped,
// so reseeding an unchanged corpus does no embedding work. Errors during
// async processing are logged but do not fail the ingestion operation.
package ingestion
