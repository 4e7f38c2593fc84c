//go:build !sqlite
// +build !sqlite

package store

import "errors"

// OpenSQLite is unavailable unless the daemon is built with -tags sqlite.
func OpenSQLite(path string) (Store, error) {
	_ = path
	return nil, errors.New("store: sqlite backend not built: build with -tags sqlite")
}
