package provision

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/model"
)

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)

// GormStore implements Store against the system partition.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transaction wraps operations in a database transaction.
func (s *GormStore) Transaction(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetPlan(code string) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	err := s.db.Where("code = ?", code).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

func (s *GormStore) GetTenant(slug string) (*model.TenantRecord, error) {
	var record model.TenantRecord
	err := s.db.Where("slug = ?", slug).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &record, nil
}

// ListTenants returns all tenant records ordered by slug. Not part of the
// Store interface; the tenant directory endpoints use it directly.
func (s *GormStore) ListTenants() ([]model.TenantRecord, error) {
	var records []model.TenantRecord
	if err := s.db.Order("slug").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return records, nil
}

func (s *GormStore) CreateTenant(record *model.TenantRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create tenant record: %w", err)
	}
	return nil
}

func (s *GormStore) SaveTenant(record *model.TenantRecord) error {
	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to save tenant record: %w", err)
	}
	return nil
}
