package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"firepoz-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VAULT_PATH", filepath.Join(dir, "vault.db"))
	t.Setenv("KV_DIR", filepath.Join(dir, "kv"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEED_IMAGE_PATH", "")
	t.Setenv("STORE_KEY", "posctl-test")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExportImportReset(t *testing.T) {
	dir := setupEnv(t)
	exported := filepath.Join(dir, "seed.db")

	out, err := run(t, "export", "--out", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "exported")

	image, err := os.ReadFile(exported)
	require.NoError(t, err)
	st, err := db.OpenImage(context.Background(), image)
	require.NoError(t, err)
	var users int
	require.NoError(t, st.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	st.Close()
	assert.Equal(t, 1, users)

	out, err = run(t, "import", "--in", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
	assert.FileExists(t, filepath.Join(dir, "kv", "posctl-test.b64"))

	out, err = run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "store cleared")
	assert.NoFileExists(t, filepath.Join(dir, "kv", "posctl-test.b64"))
}

func TestImportRejectsGarbage(t *testing.T) {
	dir := setupEnv(t)
	bad := filepath.Join(dir, "bad.db")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))

	_, err := run(t, "import", "--in", bad)
	require.Error(t, err)

	_, err = run(t, "import")
	require.Error(t, err)
}
