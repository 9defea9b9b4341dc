package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/use-agent/sitecrawl/config"
)

var testDBCounter atomic.Int64

// openTestDB returns a fresh in-memory SQLite database, migrated and ready
// to use. Each call gets a uniquely-named shared-cache instance so tests
// never see each other's rows within the same process.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("test%d", testDBCounter.Add(1))
	cfg := config.DatabaseConfig{
		URL:             fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: time.Minute,
		ConnectTimeout:  5 * time.Second,
	}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	return db
}
