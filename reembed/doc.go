// Package reembed provides functionality for reembedding indexed page
// chunks with a new or updated embedding model.
//
// This package supports page-by-page batch processing, progress tracking,
// retry logic with exponential backoff, and vector normalization so
// regenerated vectors stay compatible with cosine similarity search. It
// also repairs chunks whose stored vector is the zero-vector sentinel left
// by an embedding outage during ingestion.
package reembed
