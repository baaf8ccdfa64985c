package checkout

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormdb "gorm.io/gorm"

	"github.com/dhanavadh/aiform-backend/internal/models/gorm"
)

func openDB(t *testing.T) *gormdb.DB {
	t.Helper()
	db, err := gormdb.Open(sqlite.Open(":memory:"), &gormdb.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&gorm.PaymentTransaction{}))
	return db
}

func TestDBStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewDBStore(openDB(t))

	_, ok, err := store.Get(ctx, "Tr-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "Tr-1", Pending{Email: "a@example.com", Amount: 100}))

	p, ok, err := store.Get(ctx, "Tr-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Pending{Email: "a@example.com", Amount: 100}, p)

	require.NoError(t, store.Finish(ctx, "Tr-1", StatusCompleted))

	_, ok, err = store.Get(ctx, "Tr-1")
	require.NoError(t, err)
	assert.False(t, ok, "finished checkouts are not pending")
}

func TestCheckoutKey(t *testing.T) {
	assert.Equal(t, "checkout:Tr-abc", checkoutKey("Tr-abc"))
}
