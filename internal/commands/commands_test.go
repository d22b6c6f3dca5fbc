package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

func runFintrack(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.yaml")

	out, err := runFintrack(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	_, err = runFintrack(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = runFintrack(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestMigrate(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))

	out, err := runFintrack(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")
}

func TestMigrateInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := runFintrack(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestToken(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_PATH", dbPath)

	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	user := models.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, store.CreateUser(context.Background(), user))
	require.NoError(t, store.Close())

	t.Run("requires user id", func(t *testing.T) {
		_, err := runFintrack(t, "token")
		assert.ErrorContains(t, err, "user-id")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := runFintrack(t, "token", "--user-id", "missing")
		assert.Error(t, err)
	})

	t.Run("issues a valid token", func(t *testing.T) {
		out, err := runFintrack(t, "token", "--user-id", user.ID)
		require.NoError(t, err)

		claims, err := auth.NewJWTManager("test-secret", time.Hour).Validate(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})
}

func TestVersion(t *testing.T) {
	out, err := runFintrack(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")

	out, err = runFintrack(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fintrack dev (commit: none")
}
