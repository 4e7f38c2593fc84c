// Package store provides the job persistence layer. A Store is a flat,
// id-keyed collection of job documents; Open picks a concrete backend
// from configuration, in the same driver-switch shape the rest of the
// daemon uses for pluggable infrastructure.
//
// Five backends are available: an in-memory default, an embedded SQLite
// file (build tag "sqlite"), an S3 object store, a DynamoDB key-value
// table, and an Elasticsearch index. Exactly one backend may be selected
// at a time; selecting more than one is a configuration error.
package store
