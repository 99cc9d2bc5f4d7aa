package gormstore

import (
	"testing"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB строит SQL без подключения к базе.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestRootsPage_FirstPage(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*domain.Comment
		return rootsPage(tx, "trip-1", 10, nil).Find(&out)
	})

	assert.Contains(t, sql, "trip_id = 'trip-1' AND parent_id IS NULL")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.NotContains(t, sql, "created_at <")
}

func TestRootsPage_CursorKeepsTies(t *testing.T) {
	db := dryRunDB(t)
	cursor := &domain.Comment{ID: "c-5", CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []*domain.Comment
		return rootsPage(tx, "trip-1", 10, cursor).Find(&out)
	})

	// Комментарий с тем же временем и меньшим id попадает на следующую страницу
	assert.Contains(t, sql, "(created_at < '2026-05-01 12:00:00' OR (created_at = '2026-05-01 12:00:00' AND id < 'c-5'))")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC")
}
