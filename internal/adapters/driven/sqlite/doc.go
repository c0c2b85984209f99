// Package sqlite provides SQLite-backed ContentStore and InteractionLog adapters
// for single-node installs.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. The database runs in WAL mode with a busy timeout so the
// scheduler and the API handlers can share one file.
//
// Usage:
//
//	store, err := sqlite.NewStore("/var/lib/virtual-ta")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	content := store.ContentStore()
//	interactions := store.InteractionLog()
package sqlite
