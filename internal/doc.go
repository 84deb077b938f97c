// Package internal documents the local events server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, and routing
// - domain: event and user business rules
// - storage: repositories (PostgreSQL via pgx, and an in-memory store)
// - client: HTTP client and session persistence for the CLI
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
