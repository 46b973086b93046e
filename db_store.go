package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// IdempotencyRecordModel represents one completed signing operation in the database
type IdempotencyRecordModel struct {
	ID        uint      `gorm:"primaryKey"`
	RecordID  string    `gorm:"column:record_id;type:varchar(64);not null"`
	Key       string    `gorm:"column:idem_key;type:varchar(255);not null;index:idx_idem_scope_key"`
	Scope     string    `gorm:"column:scope;type:varchar(255);not null;index:idx_idem_scope_key"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	Response  []byte    `gorm:"column:response;type:text;not null"`
}

// TableName specifies the table name for the IdempotencyRecordModel model
func (IdempotencyRecordModel) TableName() string {
	return "idempotency_records"
}

// PolicyModel represents the persisted signing policy document
type PolicyModel struct {
	ID           uint           `gorm:"primaryKey"`
	AllowKeyRefs pq.StringArray `gorm:"type:text[];column:allow_key_refs"`
	DenyKeyRefs  pq.StringArray `gorm:"type:text[];column:deny_key_refs"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

// TableName specifies the table name for the PolicyModel model
func (PolicyModel) TableName() string {
	return "signing_policies"
}

// DBStore is the transactional EnclaveStore backend. It keeps the same
// append-only discipline as the file store: records are only ever inserted,
// never updated or deleted.
type DBStore struct {
	db *gorm.DB
}

var _ EnclaveStore = (*DBStore)(nil)

// NewDBStore creates a new DBStore instance
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) LoadPolicy(ctx context.Context) (Policy, error) {
	var model PolicyModel
	err := s.db.WithContext(ctx).Order("id DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Policy{}, nil
		}
		return Policy{}, errors.Wrap(err, "load policy")
	}
	policy := Policy{
		AllowKeyRefs: []string(model.AllowKeyRefs),
		DenyKeyRefs:  []string(model.DenyKeyRefs),
	}
	return policy.Normalize(), nil
}

// SavePolicy inserts a new policy revision. Earlier revisions stay in place;
// LoadPolicy always reads the latest one.
func (s *DBStore) SavePolicy(ctx context.Context, policy Policy) error {
	normalized := policy.Normalize()
	model := PolicyModel{
		AllowKeyRefs: pq.StringArray(normalized.AllowKeyRefs),
		DenyKeyRefs:  pq.StringArray(normalized.DenyKeyRefs),
		UpdatedAt:    time.Now().UTC(),
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&model).Error, "save policy")
}

func (s *DBStore) LookupRecord(ctx context.Context, scope, key string) (*IdempotencyRecord, error) {
	var model IdempotencyRecordModel
	err := s.db.WithContext(ctx).
		Where("scope = ? AND idem_key = ?", scope, key).
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lookup idempotency record")
	}
	record := recordFromModel(model)
	return &record, nil
}

func (s *DBStore) AppendRecord(ctx context.Context, record IdempotencyRecord) error {
	model := IdempotencyRecordModel{
		RecordID:  uuid.NewString(),
		Key:       record.Key,
		Scope:     record.Scope,
		CreatedAt: record.CreatedAt,
		Response:  []byte(record.Response),
	}
	// The check-and-insert runs in one transaction so two concurrent
	// appenders for the same (scope, key) cannot both commit a first record.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&IdempotencyRecordModel{}).
			Where("scope = ? AND idem_key = ?", record.Scope, record.Key).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "check idempotency record")
		}
		if count > 0 {
			// A record already exists; keep the log append-only and accept
			// the duplicate rather than rewriting history.
			return nil
		}
		return errors.Wrap(tx.Create(&model).Error, "append idempotency record")
	})
}

func (s *DBStore) ScanRecords(ctx context.Context) ([]IdempotencyRecord, error) {
	var models []IdempotencyRecordModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "scan idempotency records")
	}
	records := make([]IdempotencyRecord, 0, len(models))
	for _, model := range models {
		records = append(records, recordFromModel(model))
	}
	return records, nil
}

func recordFromModel(model IdempotencyRecordModel) IdempotencyRecord {
	return IdempotencyRecord{
		Key:       model.Key,
		Scope:     model.Scope,
		CreatedAt: model.CreatedAt,
		Response:  append([]byte(nil), model.Response...),
	}
}
