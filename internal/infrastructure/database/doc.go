// Package database manages the SQLite connection and schema migrations
// for the automation catalog.
//
// SQLite fits the deployment model: Spritewire is a single-process
// daemon, the catalog is small, and the single-writer constraint matches
// the admin API being the only writer. Migrations are embedded into the
// binary by the top-level migrations package and applied on startup,
// each in its own transaction.
package database
