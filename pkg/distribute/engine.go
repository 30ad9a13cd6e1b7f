// Package distribute copies framework template trees into tenant partitions
// and records the resulting subscriptions.
package distribute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/tenant"
)

var (
	// ErrTemplateNotFound is returned when the framework template id does
	// not resolve to an active framework node.
	ErrTemplateNotFound = errors.New("framework template not found")
	// ErrAlreadySubscribed is returned when an ACTIVE subscription for the
	// pair already exists. Version upgrade is an extension point.
	ErrAlreadySubscribed = errors.New("framework already subscribed")
	// ErrDistributionInProgress is returned when another distribution for
	// the same (tenant, framework) pair is in flight.
	ErrDistributionInProgress = errors.New("distribution already in progress")
	// ErrDistributionFailed wraps mid-walk failures after rollback. The
	// message carries the failing template node path.
	ErrDistributionFailed = errors.New("distribution failed")
	// ErrLimitExceeded is returned when the tenant's plan limits would be
	// exceeded by this distribution.
	ErrLimitExceeded = errors.New("plan limit exceeded")
	// ErrCustomizationNotAllowed is returned when the requested
	// customization level exceeds what the tenant's plan permits.
	ErrCustomizationNotAllowed = errors.New("customization level not allowed by plan")
)

// Result reports a completed distribution.
type Result struct {
	SubscriptionID  string
	NodesCreated    int
	ControlsCreated int
}

// Engine walks a framework template tree breadth-first and copies it into a
// tenant partition. Distributions are serialized per (tenant, framework)
// pair; distinct pairs run in parallel.
type Engine struct {
	system       SystemStore
	router       *tenant.Router
	tenantStores func(*gorm.DB) TenantStore
	auditor      *audit.Auditor
	logger       *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewEngine(system SystemStore, router *tenant.Router, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		system: system,
		router: router,
		tenantStores: func(db *gorm.DB) TenantStore {
			return NewGormTenantStore(db)
		},
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// SetTenantStoreFactory swaps the tenant-partition store constructor.
// Used by tests to observe writes without a live partition.
func (e *Engine) SetTenantStoreFactory(factory func(*gorm.DB) TenantStore) {
	e.tenantStores = factory
}

// SetAuditor wires the optional audit trail.
func (e *Engine) SetAuditor(auditor *audit.Auditor) {
	e.auditor = auditor
}

func pairKey(slug, frameworkID string) string {
	return slug + "/" + frameworkID
}

func (e *Engine) begin(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) end(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}

// Distribute copies the framework rooted at frameworkTemplateID into the
// partition of slug. Either the full tree plus the subscription record ends
// up persisted, or none of it does.
func (e *Engine) Distribute(ctx context.Context, slug, frameworkTemplateID, customizationLevel string) (*Result, error) {
	key := pairKey(slug, frameworkTemplateID)
	if !e.begin(key) {
		return nil, fmt.Errorf("%w: %s", ErrDistributionInProgress, key)
	}
	defer e.end(key)

	var result *Result
	err := tenant.RunWithTenant(ctx, slug, func(ctx context.Context) error {
		var err error
		result, err = e.distribute(ctx, slug, frameworkTemplateID, customizationLevel)
		return err
	})

	if e.auditor != nil {
		event := audit.DistributionEvent{
			TenantSlug:         slug,
			FrameworkID:        frameworkTemplateID,
			CustomizationLevel: customizationLevel,
			Success:            err == nil,
		}
		if result != nil {
			event.NodesCreated = result.NodesCreated
		}
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		e.auditor.Record(event)
	}
	return result, err
}

// copyPlan is one planned tenant node along with the template path that
// produced it, kept for failure reporting.
type copyPlan struct {
	node model.TenantNode
	path string
}

func (e *Engine) distribute(ctx context.Context, slug, frameworkTemplateID, customizationLevel string) (*Result, error) {
	framework, err := e.system.GetTemplateNode(frameworkTemplateID)
	if err != nil {
		return nil, err
	}
	if framework == nil || framework.Kind != model.NodeFramework || !framework.IsActive {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, frameworkTemplateID)
	}

	existing, err := e.system.GetActiveSubscription(slug, frameworkTemplateID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadySubscribed, slug, framework.Code)
	}

	record, err := e.system.GetTenant(slug)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %q", tenant.ErrUnknownTenant, slug)
	}

	plan, err := e.system.GetPlan(record.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("tenant %q has unknown plan %q", slug, record.PlanCode)
	}

	switch customizationLevel {
	case model.CustomizationViewOnly:
	case model.CustomizationControlLevel, model.CustomizationFull:
		if !plan.CanCustomizeControls {
			return nil, fmt.Errorf("%w: plan %q does not permit %s",
				ErrCustomizationNotAllowed, plan.Code, customizationLevel)
		}
	default:
		return nil, fmt.Errorf("invalid customization level %q", customizationLevel)
	}

	plans, controls, err := e.collect(framework, customizationLevel)
	if err != nil {
		return nil, err
	}

	if plan.MaxFrameworks > 0 && record.CurrentFrameworkCount+1 > plan.MaxFrameworks {
		return nil, fmt.Errorf("%w: plan %q allows %d frameworks",
			ErrLimitExceeded, plan.Code, plan.MaxFrameworks)
	}
	if plan.MaxControls > 0 && record.CurrentControlCount+controls > plan.MaxControls {
		return nil, fmt.Errorf("%w: plan %q allows %d controls",
			ErrLimitExceeded, plan.Code, plan.MaxControls)
	}

	partition, err := e.router.TargetFor(ctx, tenant.DomainTenant)
	if err != nil {
		return nil, err
	}
	tenantStore := e.tenantStores(partition)

	// All node writes commit or roll back together on the tenant
	// partition.
	createdIDs := make([]string, 0, len(plans))
	err = tenantStore.Transaction(func(tx TenantStore) error {
		for _, planned := range plans {
			node := planned.node
			if err := tx.CreateNode(&node); err != nil {
				return fmt.Errorf("%w at %s: %v", ErrDistributionFailed, planned.path, err)
			}
			createdIDs = append(createdIDs, node.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDistributionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDistributionFailed, err)
	}

	now := time.Now().UTC()
	sub := &model.FrameworkSubscription{
		ID:                  uuid.NewString(),
		TenantSlug:          slug,
		FrameworkTemplateID: frameworkTemplateID,
		FrameworkName:       framework.Name,
		FrameworkVersion:    framework.Version,
		CustomizationLevel:  customizationLevel,
		NodesCreated:        len(plans),
		Status:              model.FrameworkSubActive,
		DistributedAt:       &now,
	}

	err = e.system.Transaction(func(tx SystemStore) error {
		if err := tx.CreateSubscription(sub); err != nil {
			return err
		}
		record.CurrentFrameworkCount++
		record.CurrentControlCount += controls
		return tx.SaveTenant(record)
	})
	if err != nil {
		// The tenant write already committed; undo it so no partial
		// end state survives the failed subscription write.
		if delErr := e.compensate(tenantStore, createdIDs); delErr != nil {
			e.logger.Error("compensation failed, orphaned nodes remain",
				zap.String("tenant", slug),
				zap.String("framework", framework.Code),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: record subscription: %v", ErrDistributionFailed, err)
	}

	e.logger.Info("framework distributed",
		zap.String("tenant", slug),
		zap.String("framework", framework.Code),
		zap.String("version", framework.Version),
		zap.Int("nodes", len(plans)),
		zap.Int("controls", controls),
	)

	return &Result{
		SubscriptionID:  sub.ID,
		NodesCreated:    len(plans),
		ControlsCreated: controls,
	}, nil
}

// collect walks the template tree breadth-first and plans one tenant node
// per template node. Returns the plans in creation order (parents before
// children) and the count of control-level copies.
func (e *Engine) collect(framework *model.TemplateNode, customizationLevel string) ([]copyPlan, int, error) {
	type queued struct {
		template model.TemplateNode
		parentID *string
		path     string
	}

	queue := []queued{{template: *framework, path: framework.Code}}
	plans := make([]copyPlan, 0, 64)
	controls := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		node := copyNode(item.template, item.parentID, customizationLevel)
		plans = append(plans, copyPlan{node: node, path: item.path})
		if item.template.Kind == model.NodeControl {
			controls++
		}

		children, err := e.system.GetTemplateChildren(item.template.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w at %s: %v", ErrDistributionFailed, item.path, err)
		}
		for _, child := range children {
			queue = append(queue, queued{
				template: child,
				parentID: &node.ID,
				path:     item.path + "/" + child.Code,
			})
		}
	}
	return plans, controls, nil
}

// copyNode turns one template node into its tenant copy, applying the
// customization policy: VIEW_ONLY locks everything, CONTROL_LEVEL unlocks
// control nodes only, FULL unlocks every copy.
func copyNode(template model.TemplateNode, parentID *string, customizationLevel string) model.TenantNode {
	canCustomize := false
	switch customizationLevel {
	case model.CustomizationFull:
		canCustomize = true
	case model.CustomizationControlLevel:
		canCustomize = template.Kind == model.NodeControl
	}

	return model.TenantNode{
		ID:               uuid.NewString(),
		Kind:             template.Kind,
		ParentID:         parentID,
		TemplateOriginID: template.ID,
		Code:             template.Code,
		Name:             template.Name,
		Description:      template.Description,
		Objective:        template.Objective,
		ControlType:      template.ControlType,
		Frequency:        template.Frequency,
		RiskLevel:        template.RiskLevel,
		CanCustomize:     canCustomize,
		SortOrder:        template.SortOrder,
	}
}

func (e *Engine) compensate(store TenantStore, ids []string) error {
	return store.Transaction(func(tx TenantStore) error {
		return tx.DeleteNodes(ids)
	})
}
