// Package storage provides object storage abstractions with pluggable backends.
//
// Backends register a factory from an init function; import the ones you
// need for their side effect:
//
//   - storage/local: filesystem storage, also used as the run workspace
//   - storage/s3: Amazon S3 and S3-compatible services
//   - storage/memory: in-process storage for tests and dry runs
//
// # Configuration
//
//	archive:
//	  storage:
//	    provider: "s3"
//	    bucket: "transcripts"
//	    region: "us-east-1"
package storage
