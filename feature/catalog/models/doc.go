// Package models holds the catalog entities: customers with their orders and tags.
//
// Tags compare by identifier, so a tag the client echoes back equals the proxy
// or instance the session loaded for the same row.
package models
