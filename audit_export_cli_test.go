package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditStore(t *testing.T) *FileStore {
	t.Helper()
	store := setupFileStore(t)
	ctx := context.Background()

	records := []IdempotencyRecord{
		{Key: "k1", Scope: "sign-data:api", CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), Response: json.RawMessage(`{"n":1}`)},
		{Key: "k2", Scope: "sign-data:user-42", CreatedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), Response: json.RawMessage(`{"n":2}`)},
		{Key: "k3", Scope: "sign-data:api", CreatedAt: time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC), Response: json.RawMessage(`{"n":3}`)},
	}
	for _, record := range records {
		require.NoError(t, store.AppendRecord(ctx, record))
	}
	return store
}

func TestAuditExportToCSV(t *testing.T) {
	exporter := NewAuditExporter(setupAuditStore(t))

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportToCSV(context.Background(), &buf, AuditExportOptions{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Scope", "Key", "CreatedAt", "Response"}, rows[0])
	assert.Equal(t, []string{"sign-data:api", "k1", "2025-06-01T12:00:00Z", `{"n":1}`}, rows[1])
	assert.Equal(t, "k2", rows[2][1])
	assert.Equal(t, "k3", rows[3][1])
}

func TestAuditExportScopeFilter(t *testing.T) {
	exporter := NewAuditExporter(setupAuditStore(t))

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportToCSV(context.Background(), &buf, AuditExportOptions{
		Scope: "sign-data:api",
	}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "k1", rows[1][1])
	assert.Equal(t, "k3", rows[2][1])
}

func TestAuditExportToFile(t *testing.T) {
	exporter := NewAuditExporter(setupAuditStore(t))

	dir := filepath.Join(t.TempDir(), "export")
	fileName, err := exporter.ExportToFile(context.Background(), AuditExportOptions{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(fileName))

	raw, err := os.ReadFile(fileName)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
