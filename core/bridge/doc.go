// Package bridge moves ORM entities, lazy proxies and collection wrappers across
// a detached boundary and reconciles them with a live session on the way back.
//
// # Serialization
//
// Proxies become a ProxyDescriptor (class name and identifier). Collection and map
// wrappers become a CollectionDescriptor recording the wrapper kind, role, owner key
// and, when the wrapper was initialized, one SerializableID per member. Entities are
// described by identifier; numbers, strings and enums by value.
//
// # Rehydration
//
// RehydrateCollection and RehydrateMap rebuild the captured members against the
// session bound to the context, install them as the wrapper snapshot and compare
// them with the content the client holds now. Differences leave the wrapper dirty
// so the next flush writes them. Members whose rows were deleted in the meantime
// are dropped from the snapshot.
//
// # Sessions
//
// Reconciliation runs inside a session bound with OpenSession. Calls made without
// one open and close a short-lived session of their own; rehydrated proxies and
// wrappers are then detached again on return.
//
// # Usage
//
//	b := bridge.New(factory, intro, bridge.DefaultConfig(), logger, bridge.WithMetrics(m))
//	d, err := b.SerializeCollection(ctx, customer.Tags)
//
//	ctx, err = b.OpenSession(ctx)
//	defer b.CloseSession(ctx)
//	tags, err := b.RehydrateCollection(ctx, customer, d, clientTags)
package bridge
