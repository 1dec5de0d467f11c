// Package storage is the object storage backend of the MinIO descriptor store.
//
// Stateful fetches park collection descriptors on the server as one JSON object per
// token. This package wraps the MinIO Go client behind the few calls that needs, so the
// store can be tested against core/storage/mocks. Both AWS S3 and self-hosted MinIO
// endpoints work.
//
// # Helpers
//
//   - EnsureBucket: creates the descriptor bucket on first use.
//   - IsNotFound: recognises MinIO's NoSuchKey answer so an expired token maps to store.ErrNotFound.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket); err != nil {
//		return err
//	}
package storage
