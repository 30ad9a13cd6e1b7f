package distribute

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/model"
)

// Ensure the gorm implementations satisfy their interfaces
var (
	_ SystemStore = (*GormSystemStore)(nil)
	_ TenantStore = (*GormTenantStore)(nil)
)

// GormSystemStore implements SystemStore against the system partition.
type GormSystemStore struct {
	db *gorm.DB
}

func NewGormSystemStore(db *gorm.DB) *GormSystemStore {
	return &GormSystemStore{db: db}
}

func (s *GormSystemStore) Transaction(fn func(SystemStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormSystemStore{db: tx})
	})
}

func (s *GormSystemStore) GetTemplateNode(id string) (*model.TemplateNode, error) {
	var node model.TemplateNode
	err := s.db.Where("id = ?", id).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template node: %w", err)
	}
	return &node, nil
}

func (s *GormSystemStore) GetTemplateChildren(parentID string) ([]model.TemplateNode, error) {
	var children []model.TemplateNode
	err := s.db.
		Where("parent_id = ? AND is_active", parentID).
		Order("sort_order, code").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get template children: %w", err)
	}
	return children, nil
}

func (s *GormSystemStore) GetActiveSubscription(tenantSlug, frameworkTemplateID string) (*model.FrameworkSubscription, error) {
	var sub model.FrameworkSubscription
	err := s.db.
		Where("tenant_slug = ? AND framework_template_id = ? AND status = ?",
			tenantSlug, frameworkTemplateID, model.FrameworkSubActive).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (s *GormSystemStore) CreateSubscription(sub *model.FrameworkSubscription) error {
	if err := s.db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (s *GormSystemStore) GetTenant(slug string) (*model.TenantRecord, error) {
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

func (s *GormSystemStore) SaveTenant(record *model.TenantRecord) error {
	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to save tenant record: %w", err)
	}
	return nil
}

func (s *GormSystemStore) GetPlan(code string) (*model.SubscriptionPlan, error) {
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

// GormTenantStore implements TenantStore on one tenant's partition handle.
type GormTenantStore struct {
	db *gorm.DB
}

func NewGormTenantStore(db *gorm.DB) *GormTenantStore {
	return &GormTenantStore{db: db}
}

func (s *GormTenantStore) Transaction(fn func(TenantStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormTenantStore{db: tx})
	})
}

func (s *GormTenantStore) CreateNode(node *model.TenantNode) error {
	if err := s.db.Create(node).Error; err != nil {
		return fmt.Errorf("failed to create tenant node: %w", err)
	}
	return nil
}

func (s *GormTenantStore) DeleteNodes(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	// Children reference parents, so delete in reverse creation order.
	for i := len(ids) - 1; i >= 0; i-- {
		if err := s.db.Where("id = ?", ids[i]).Delete(&model.TenantNode{}).Error; err != nil {
			return fmt.Errorf("failed to delete tenant node: %w", err)
		}
	}
	return nil
}
