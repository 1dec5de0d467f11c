// Package store keeps collection descriptors on the server.
//
// Instead of shipping a full descriptor with every detached collection, a handler can
// store it and send the client an opaque token (a UUID). The descriptor is fetched
// again when the collection comes back.
//
// # Backends
//
//   - memory: in-process map with an optional TTL, for single instance deployments and tests
//   - minio: one JSON object per descriptor, "<prefix>/<token>.json" in the configured bucket
//   - redis: one key per descriptor, "<prefix>:<token>", expiring after the TTL
//
// # Usage
//
//	s, err := store.New(ctx, cfg.Store, storageClient, cfg.Storage.Bucket, logger)
//	token, err := s.Put(ctx, descriptor)
//	descriptor, err = s.Get(ctx, token)
package store
