// Package archive stores raw probe responses in object storage for audit.
//
// The session resolver only consumes a handful of fields from each probe
// response, but the raw blobs have repeatedly been the only way to debug the
// third-party service's shifting field names. When enabled, every merged
// probe response is archived verbatim under probes/<phone>/<timestamp>.json.
//
// # Client Interface
//
// The Client interface wraps the MinIO Go client with just the operations
// the archive needs, making storage interactions easy to mock for unit
// testing (see core/archive/mocks). It supports both AWS S3 and self-hosted
// MinIO instances.
//
// # Usage
//
//	client, err := archive.NewClient(cfg)
//	arc := archive.New(client, cfg.Bucket, logger)
//	err = arc.Store(ctx, "15550001111", rawJSON)
package archive
