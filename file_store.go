package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore is the reference EnclaveStore backend: a single JSON policy
// document plus a newline-delimited JSON append log for idempotency records
// (one object per line). A half-written trailing line from a crash is skipped
// on replay, so the log tolerates process crashes mid-write.
type FileStore struct {
	policyPath string
	logPath    string

	// Appends are serialized because plain file appends are only atomic up to
	// the pipe buffer size; a single writer keeps lines whole.
	appendMu sync.Mutex
}

var _ EnclaveStore = (*FileStore)(nil)

func NewFileStore(policyPath, logPath string) *FileStore {
	return &FileStore{policyPath: policyPath, logPath: logPath}
}

func (s *FileStore) LoadPolicy(_ context.Context) (Policy, error) {
	raw, err := os.ReadFile(s.policyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Policy{}, nil
		}
		return Policy{}, errors.Wrap(err, "read policy document")
	}
	var policy Policy
	if err := json.Unmarshal(raw, &policy); err != nil {
		return Policy{}, errors.Wrap(err, "parse policy document")
	}
	return policy.Normalize(), nil
}

func (s *FileStore) LookupRecord(ctx context.Context, scope, key string) (*IdempotencyRecord, error) {
	records, err := s.ScanRecords(ctx)
	if err != nil {
		return nil, err
	}
	// Most recently appended match wins.
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Scope == scope && records[i].Key == key {
			record := records[i]
			return &record, nil
		}
	}
	return nil, nil
}

func (s *FileStore) AppendRecord(_ context.Context, record IdempotencyRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "encode idempotency record")
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	if dir := filepath.Dir(s.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "create log directory")
		}
	}
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return errors.Wrap(err, "open idempotency log")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "append idempotency record")
	}
	return f.Sync()
}

func (s *FileStore) ScanRecords(_ context.Context) ([]IdempotencyRecord, error) {
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open idempotency log")
	}
	defer f.Close()

	var records []IdempotencyRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record IdempotencyRecord
		if err := json.Unmarshal(line, &record); err != nil {
			// Malformed or truncated line, likely a crashed write. Skip it
			// to preserve forward progress; never fail the whole scan.
			continue
		}
		if record.Key == "" || record.Scope == "" {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan idempotency log")
	}
	return records, nil
}
