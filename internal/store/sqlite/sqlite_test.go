package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/codecoach/sessiond/internal/store"
	"github.com/codecoach/sessiond/internal/store/storetest"
)

func TestSqliteStore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		path := filepath.Join(t.TempDir(), "sessiond.db")
		s, err := New(path)
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}
