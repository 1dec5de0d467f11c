// Package catalog serves customers as detached object graphs and reconciles them
// when clients send them back.
//
// A fetch wraps the customer's associations and ships a collection descriptor
// next to the members. The client edits the members and echoes the descriptor;
// the service rehydrates the wrapper, compares it with what the client holds and
// writes the association only when it changed.
//
// # Descriptor transport
//
// Descriptors travel inline by default. With stateful=true they are kept in the
// descriptor store (memory, redis or minio) and the client only sees a token,
// which a successful update consumes.
//
// # Components
//
//   - Service: Opens a session scope per call and drives the reconciliation bridge.
//   - Handler: Exposes HTTP endpoints and maps errors to statuses.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET /catalog/customers/:id : Detached customer (?orders=true, ?stateful=true).
//   - PUT /catalog/customers/:id : Apply a detached customer.
//   - GET /catalog/tags/:id/reference : Proxy descriptor of a tag.
//   - GET /catalog/tags/:id/usage : Number of customers carrying a tag.
//   - POST /catalog/references/resolve : Load the entity named by a proxy descriptor.
//   - GET /catalog/classify/:type : Persistence classification of a registered type.
package catalog
