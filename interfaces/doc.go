// Package interfaces defines the core interfaces and types for the image
// delivery backend, separating interface definitions from implementations.
//
// The package provides the contracts between the three layers of the
// system:
//
// # Storage Interfaces
//
// Backend: Retrieves a stored object as a lazy stream of fixed-size byte
// chunks. Implementations cover local filesystem paths, plain HTTP(S)
// URLs, and authenticated object stores (Swift, S3).
//
// Retriever: Dispatches a location URI to the backend registered for its
// scheme. Implemented by the storage backend registry and consumed by the
// HTTP image server and the fetch CLI.
//
// ChunkStream: The common form in which all backends hand out object
// data. Streams are forward-only and release their underlying resource on
// exhaustion, on error, and on Close.
//
// # Location Handling
//
// Location and ParseLocation cover generic URI splitting. Parsing is
// deliberately permissive: it rejects only strings that are not URIs at
// all, and leaves scheme policing to the registry and shape validation to
// the individual backends. Backends that embed credentials in the
// authority component (swift, s3) re-parse Location.Raw themselves.
//
// # Image Metadata
//
// ImageDescriptor and ImageLocation describe a stored image and the
// ordered storage locations holding its data. ImageIndex is the lookup
// contract implemented by the registry package's HTTP client and static
// manifest index.
//
// # Errors
//
// Two error kinds are deterministic and typed: UnsupportedBackendError
// (scheme has no registered backend) and BackendError (a backend detected
// a contract violation such as a malformed credential URI or a size
// mismatch). Environmental failures, such as filesystem, network, and
// object store errors, are propagated untranslated so callers can inspect
// the original error.
//
// # Test Seams
//
// GetOption and the With* helpers let tests replace a backend's edge, the
// file opener, the HTTP client, or the object store connector, without
// altering the fixed scheme table. Production code never passes these
// options.
package interfaces
