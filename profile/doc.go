// Package profile stores student learning profiles and per-concept
// performance records. The in-memory store below is process-local and suited
// for tests and single-node deployments; swap in a database-backed
// implementation at wiring time for durable storage.
package profile
