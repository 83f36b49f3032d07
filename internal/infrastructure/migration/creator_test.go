package migration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments index", "add_payments_index"},
		{"Add-Payments-Index", "add_payments_index"},
		{"ADD_PAYMENTS_INDEX", "add_payments_index"},
		{"add__payments__index", "add_payments_index"},
		{"Add Carrier 123", "add_carrier_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"000001_create_products.up.sql", "000001_create_products.down.sql", "000004_create_payments.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}

	mf, err := CreateMigration(dir, "add refund reason", "Store why a payment was refunded")
	require.NoError(t, err)

	assert.Equal(t, "000005", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000005_add_refund_reason.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000005_add_refund_reason.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Store why a payment was refunded")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_EmptyDirectoryStartsAtOne(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "first")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_create_carts.up.sql":      {Data: []byte("--")},
		"000002_create_carts.down.sql":    {Data: []byte("--")},
		"000001_create_products.up.sql":   {Data: []byte("--")},
		"000001_create_products.down.sql": {Data: []byte("--")},
		"000003_create_orders.up.sql":     {Data: []byte("--")},
		"README.md":                       {Data: []byte("docs")},
		"notes_draft.sql":                 {Data: []byte("--")},
		"subdir.up.sql/keep":              {Data: []byte("")},
	}

	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)

	require.Len(t, migrations, 3)
	assert.Equal(t, MigrationEntry{Version: 1, Name: "create_products", HasDown: true}, migrations[0])
	assert.Equal(t, MigrationEntry{Version: 2, Name: "create_carts", HasDown: true}, migrations[1])
	assert.Equal(t, MigrationEntry{Version: 3, Name: "create_orders", HasDown: false}, migrations[2])
	assert.Equal(t, "000003_create_orders", migrations[2].BaseName())
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(Files, EmbeddedDir)
	require.NoError(t, err)

	migrations, err := ListMigrations(sub)
	require.NoError(t, err)

	names := make([]string, 0, len(migrations))
	for i, m := range migrations {
		assert.Equal(t, uint64(i+1), m.Version, "versions have no gaps")
		assert.True(t, m.HasDown, "%s has a down migration", m.BaseName())
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"create_products", "create_carts", "create_orders", "create_payments"}, names)

	up, err := fs.ReadFile(sub, "000004_create_payments.up.sql")
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(string(up)), "UNIQUE INDEX")
}

func TestEmbeddedSource(t *testing.T) {
	src, err := EmbeddedSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}
