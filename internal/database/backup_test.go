package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stayhub/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	db, err := NewDB(filepath.Join(dir, "stayhub.db"), &logger)
	require.NoError(t, err)
	defer db.Close()
	room := createTestRoom(t, db)

	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		StoragePath:   backupDir,
		RetentionDays: 7,
	}, &logger)
	svc.now = func() time.Time { return time.Date(2025, 1, 10, 3, 0, 0, 0, time.UTC) }

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := svc.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(backupDir, "backup_20250110_030000.db"), path)
		assert.FileExists(t, path)

		restored, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer restored.Close()

		got, err := restored.GetRoom(context.Background(), room.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Title, got.Title)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		old := filepath.Join(backupDir, "backup_20241201_030000.db")
		require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
		stale := svc.now().AddDate(0, 0, -30)
		require.NoError(t, os.Chtimes(old, stale, stale))

		unrelated := filepath.Join(backupDir, "notes.txt")
		require.NoError(t, os.WriteFile(unrelated, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(unrelated, stale, stale))

		// the fresh backup has a real mtime far after the fixed clock
		assert.Equal(t, 1, svc.CleanupOldBackups())
		assert.NoFileExists(t, old)
		assert.FileExists(t, unrelated)
	})

	t.Run("Disabled", func(t *testing.T) {
		off := NewBackupService(db, config.BackupConfig{StoragePath: t.TempDir()}, &logger)
		assert.NoError(t, off.Run(context.Background()))
	})
}

func TestBackupService_MemoryDatabase(t *testing.T) {
	logger := zerolog.Nop()
	db := setupTestDB(t)
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: t.TempDir()}, &logger)

	// VACUUM INTO works for :memory: too
	path, err := svc.PerformBackup(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)
}
