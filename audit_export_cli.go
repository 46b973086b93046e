package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// AuditExportOptions contains options for exporting the signing audit trail
type AuditExportOptions struct {
	Scope     string
	OutputDir string
}

// AuditExporter handles exporting idempotency records to CSV
type AuditExporter struct {
	store EnclaveStore
}

// NewAuditExporter creates a new audit exporter
func NewAuditExporter(store EnclaveStore) *AuditExporter {
	return &AuditExporter{store: store}
}

// ExportToCSV exports the audit trail to CSV format
func (e *AuditExporter) ExportToCSV(ctx context.Context, writer io.Writer, options AuditExportOptions) error {
	records, err := e.store.ScanRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan records: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	// Write header
	header := []string{"Scope", "Key", "CreatedAt", "Response"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	// Write records
	for _, record := range records {
		if options.Scope != "" && record.Scope != options.Scope {
			continue
		}
		row := []string{
			record.Scope,
			record.Key,
			record.CreatedAt.Format(time.RFC3339),
			string(record.Response),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row to CSV: %w", err)
		}
	}
	return nil
}

// ExportToFile exports the audit trail to a CSV file
func (e *AuditExporter) ExportToFile(ctx context.Context, options AuditExportOptions) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", options.OutputDir, err)
	}

	fileName := filepath.Join(options.OutputDir, fmt.Sprintf("enclave_audit_%d.csv", time.Now().Unix()))
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", fileName, err)
	}
	defer file.Close()

	if err := e.ExportToCSV(ctx, file, options); err != nil {
		return "", fmt.Errorf("failed to export to CSV: %w", err)
	}

	return fileName, nil
}

func runAuditExportCli(logger Logger) {
	logger = logger.NewSystem("audit-export")
	if len(os.Args) > 3 {
		logger.Fatal("Usage: enclaved audit-export [scope]")
	}

	var scope string
	if len(os.Args) > 2 {
		scope = os.Args[2]
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}

	store, err := BuildStore(config, logger)
	if err != nil {
		logger.Fatal("Failed to set up storage", "error", err)
	}

	exporter := NewAuditExporter(store)
	options := AuditExportOptions{
		Scope:     scope,
		OutputDir: "csv_export",
	}

	fileName, err := exporter.ExportToFile(context.Background(), options)
	if err != nil {
		logger.Fatal("Failed to export audit trail", "error", err)
	}
	logger.Info("Successfully exported audit trail", "file", fileName)
}
