// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"

	"stash/internal/auth"
	"stash/internal/config"
	"stash/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database closed at test cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(config.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.AutoMigrateAndIndexes(gdb))
	return gdb
}

// CreateUser inserts a user directly. quota < 0 means unlimited.
func CreateUser(t *testing.T, gdb *gorm.DB, email, password string, superuser bool, quota int64) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	u := &auth.User{Email: email, PasswordHash: hash, IsSuperuser: superuser}
	if quota >= 0 {
		q := quota
		u.Quota = &q
	}
	require.NoError(t, gdb.WithContext(context.Background()).Create(u).Error)
	return u
}

func Int64(v int64) *int64 { return &v }
