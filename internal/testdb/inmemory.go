// Package testdb creates in-memory stores for tests.
package testdb

import (
	"fmt"
	"sync/atomic"

	"github.com/tonyski/bbmemo/internal/store"
)

var dbCounter atomic.Int64

// NewStoreInMemory creates an isolated in-memory note store. Each call gets
// its own shared-cache name so parallel tests never collide.
func NewStoreInMemory() (*store.Store, error) {
	name := fmt.Sprintf("bbmemo-test-%d", dbCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	s, err := store.OpenDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	return s, nil
}
