package service

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"yatube/app/config"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(f func()) string {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = oldStdout
	return <-done
}

func mockStdin(input string, f func()) {
	oldStdin := os.Stdin
	r, w, _ := os.Pipe()
	os.Stdin = r

	go func() {
		w.Write([]byte(input))
		w.Close()
	}()

	f()

	os.Stdin = oldStdin
}

// setupTestDB points the database and backup directories at a temp dir.
func setupTestDB(t *testing.T) string {
	tmpDir := t.TempDir()
	oldDBPath, oldBackupDir := dbPath, backupDir
	dbPath = filepath.Join(tmpDir, "badger")
	backupDir = filepath.Join(tmpDir, "backups")
	t.Setenv("STORAGE_DRIVER", config.DriverBadger)
	t.Setenv("BADGER_PATH", dbPath)
	t.Setenv("BACKUP_DIR", backupDir)
	t.Cleanup(func() {
		dbPath, backupDir = oldDBPath, oldBackupDir
	})
	return tmpDir
}

func run(args ...string) (string, int) {
	var code int
	output := captureOutput(func() {
		code = HandleCommand(args)
	})
	return output, code
}

func TestHandleCommand(t *testing.T) {
	setupTestDB(t)

	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedExit   int
	}{
		{
			name:           "no arguments",
			args:           []string{},
			expectedOutput: "Usage:",
			expectedExit:   0,
		},
		{
			name:           "help command",
			args:           []string{"help"},
			expectedOutput: "Available Commands:",
			expectedExit:   0,
		},
		{
			name:           "version",
			args:           []string{"version"},
			expectedOutput: "yatube version " + Version,
			expectedExit:   0,
		},
		{
			name:           "unknown command",
			args:           []string{"unknown"},
			expectedOutput: `unknown command "unknown"`,
			expectedExit:   1,
		},
		{
			name:           "restore without file",
			args:           []string{"restore"},
			expectedOutput: "Error: backup file path required for restore",
			expectedExit:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, code := run(tt.args...)
			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, code)
		})
	}
}

func TestExecuteExitsOnFailure(t *testing.T) {
	setupTestDB(t)

	var exitCode int
	oldOsExit, oldArgs := osExit, os.Args
	t.Cleanup(func() {
		osExit, os.Args = oldOsExit, oldArgs
		logger.SetOutput(nil)
	})
	osExit = func(code int) { exitCode = code }
	os.Args = []string{"yatube", "restore"}

	captureOutput(Execute)
	assert.Equal(t, 1, exitCode)
}

func TestInitDb(t *testing.T) {
	setupTestDB(t)

	t.Run("initialize new database", func(t *testing.T) {
		output, code := run("init")

		assert.Equal(t, 0, code)
		assert.Contains(t, output, "Database initialized successfully")
		assert.DirExists(t, dbPath)
	})

	t.Run("initialize existing database", func(t *testing.T) {
		output, _ := run("init")

		assert.Contains(t, output, "Database already exists")
	})
}

func TestCommandsUseConfiguredPaths(t *testing.T) {
	tmpDir := setupTestDB(t)
	configured := filepath.Join(tmpDir, "configured")
	t.Setenv("BADGER_PATH", filepath.Join(configured, "badger"))
	t.Setenv("BACKUP_DIR", filepath.Join(configured, "backups"))
	dbPath, backupDir = "stale-badger", "stale-backups"

	_, code := run("init")
	require.Equal(t, 0, code)
	_, code = run("backup")
	require.Equal(t, 0, code)

	assert.Equal(t, filepath.Join(configured, "badger"), dbPath)
	assert.Equal(t, filepath.Join(configured, "backups"), backupDir)
	assert.DirExists(t, filepath.Join(configured, "badger"))
	files, err := filepath.Glob(filepath.Join(configured, "backups", "backup_*.db"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.NoDirExists(t, "stale-badger")
}

func TestClean(t *testing.T) {
	setupTestDB(t)

	t.Run("clean non-existent database", func(t *testing.T) {
		output := captureOutput(func() { clean() })

		assert.Contains(t, output, "Database is already clean")
	})

	t.Run("clean existing database - confirmed", func(t *testing.T) {
		captureOutput(func() { initDb() })
		require.DirExists(t, dbPath)

		var output string
		mockStdin("y\n", func() {
			output = captureOutput(func() { clean() })
		})

		assert.Contains(t, output, "Database cleaned successfully")
		assert.NoDirExists(t, dbPath)
	})

	t.Run("clean existing database - cancelled", func(t *testing.T) {
		captureOutput(func() { initDb() })
		require.DirExists(t, dbPath)

		var output string
		mockStdin("n\n", func() {
			output = captureOutput(func() { clean() })
		})

		assert.Contains(t, output, "Operation cancelled")
		assert.DirExists(t, dbPath)
	})
}

func TestBackup(t *testing.T) {
	setupTestDB(t)

	t.Run("backup non-existent database", func(t *testing.T) {
		output, code := run("backup")

		assert.Equal(t, 1, code)
		assert.Contains(t, output, "No database exists to backup")
	})

	t.Run("backup existing database", func(t *testing.T) {
		captureOutput(func() { initDb() })

		output, code := run("backup")

		assert.Equal(t, 0, code)
		assert.Contains(t, output, "Database backed up successfully")
		files, err := filepath.Glob(filepath.Join(backupDir, "backup_*.db"))
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestRestore(t *testing.T) {
	tmpDir := setupTestDB(t)

	t.Run("restore non-existent backup", func(t *testing.T) {
		output := captureOutput(func() { restore("nonexistent.db") })

		assert.Contains(t, output, "Backup file does not exist")
	})

	t.Run("restore empty backup", func(t *testing.T) {
		backupFile := filepath.Join(tmpDir, "empty.db")
		require.NoError(t, os.WriteFile(backupFile, nil, 0644))

		output := captureOutput(func() { restore(backupFile) })

		assert.Contains(t, output, "Backup file is empty")
	})

	t.Run("restore corrupt backup", func(t *testing.T) {
		backupFile := filepath.Join(tmpDir, "corrupt.db")
		require.NoError(t, os.WriteFile(backupFile, []byte("test backup data"), 0644))
		require.NoError(t, os.RemoveAll(dbPath))

		var code int
		output := captureOutput(func() { code = restore(backupFile) })

		assert.Equal(t, 1, code)
		assert.Contains(t, output, "Failed to restore database")
	})

	t.Run("round trip with existing database - confirmed", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(dbPath))
		_, code := run("group", "create", "--title", "Cats", "--slug", "cats")
		require.Equal(t, 0, code)
		_, code = run("backup")
		require.Equal(t, 0, code)
		files, _ := filepath.Glob(filepath.Join(backupDir, "backup_*.db"))
		require.NotEmpty(t, files)

		_, code = run("group", "delete", "cats")
		require.Equal(t, 0, code)

		var output string
		mockStdin("y\n", func() {
			output, code = run("restore", files[len(files)-1])
		})
		assert.Equal(t, 0, code)
		assert.Contains(t, output, "Database restored successfully")

		db, err := repositories.OpenBadger(dbPath)
		require.NoError(t, err)
		store := repositories.NewBadgerStore(db)
		defer store.Close()
		group, err := store.Groups.GetBySlug("cats")
		require.NoError(t, err)
		assert.Equal(t, "Cats", group.Title)
	})

	t.Run("restore with existing database - cancelled", func(t *testing.T) {
		files, _ := filepath.Glob(filepath.Join(backupDir, "backup_*.db"))
		require.NotEmpty(t, files)

		var output string
		var code int
		mockStdin("n\n", func() {
			output = captureOutput(func() { code = restore(files[0]) })
		})

		assert.Equal(t, 1, code)
		assert.Contains(t, output, "Operation cancelled")
	})
}

func TestGroupCommands(t *testing.T) {
	setupTestDB(t)

	output, code := run("group", "create", "--title", "Dogs", "--slug", "dogs", "--description", "Good boys")
	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Created group: Dogs (slug: dogs")

	output, code = run("group", "create", "--title", "Dogs", "--slug", "dogs")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error:")

	output, code = run("group", "create", "--title", "Bad", "--slug", "not a slug")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error:")

	output, code = run("group", "delete", "dogs")
	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Deleted group: dogs")

	_, code = run("group", "delete", "dogs")
	assert.Equal(t, 1, code)
}

func TestUserDeleteCommand(t *testing.T) {
	setupTestDB(t)

	store, err := openStore(config.Load())
	require.NoError(t, err)
	users := services.NewUserService(store)
	require.NoError(t, users.Register(&models.User{Username: "leo"}, "s3cret-pass"))
	require.NoError(t, store.Close())

	output, code := run("user", "delete", "leo")
	assert.Equal(t, 0, code)
	assert.Contains(t, output, "Deleted user: leo")

	output, code = run("user", "delete", "leo")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, `delete user "leo"`)
}

func TestOpenStoreDrivers(t *testing.T) {
	setupTestDB(t)

	t.Run("sqlite in memory", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
		t.Setenv("SQLITE_PATH", "")
		store, err := openStore(config.Load())
		require.NoError(t, err)
		defer store.Close()

		group := &models.Group{Title: "Cats", Slug: "cats"}
		require.NoError(t, store.Groups.Create(group))
		assert.NotZero(t, group.ID)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mysql")
		_, err := openStore(config.Load())
		assert.ErrorContains(t, err, `unknown storage driver "mysql"`)
	})
}
