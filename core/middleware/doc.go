// Package middleware groups the HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - auth: API key validation to protect endpoints.
//   - rayid: a unique request id (RayID) for every incoming request, stored in the
//     fiber locals and echoed in the X-Ray-ID response header for tracing.
//
// These middleware components are designed to be registered globally or per-route group
// in the main application setup.
package middleware
