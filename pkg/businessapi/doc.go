// Package businessapi implements the business directory resource pipeline:
// normalization of heterogeneous request payloads (JSON or multipart form
// submissions with file attachments), resolution of attachments into durable
// public URLs through a pluggable blob store, and create/read/update/delete
// persistence of the canonical business record through a pluggable document
// repository.
//
// The package is storage-agnostic. Repositories live under repo/ (memory,
// postgres, firestore) and blob stores under storage/ (memory, s3). HTTP
// handlers composing the service live under api/.
package businessapi
