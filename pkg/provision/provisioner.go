// Package provision creates and manages tenant partitions: the tenant
// record, the schema and its credential, the fixed table set, and the
// lifecycle transitions around them.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/secrets"
	"github.com/complyhub/complyd/pkg/tenant"
)

var (
	// ErrSlugTaken is returned when a slug already has a tenant record
	// that is neither ACTIVE (AlreadyProvisioned) nor FAILED (recoverable).
	ErrSlugTaken = errors.New("tenant slug already taken")
	// ErrUnknownPlan is returned for plan codes with no plan record.
	ErrUnknownPlan = errors.New("unknown subscription plan")
	// ErrAlreadyProvisioned is returned when the slug is already ACTIVE.
	ErrAlreadyProvisioned = errors.New("tenant already provisioned")
	// ErrProvisioningInProgress is returned when another provisioning
	// attempt for the same slug is in flight.
	ErrProvisioningInProgress = errors.New("provisioning already in progress")
	// ErrProvisionFailed wraps infrastructure failures during the
	// multi-step flow; the record is left FAILED for idempotent retry.
	ErrProvisionFailed = errors.New("provisioning failed")
	// ErrTenantNotFound is returned by lifecycle operations on unknown
	// slugs.
	ErrTenantNotFound = errors.New("tenant not found")
)

// Params are the inputs to one provisioning attempt. ActorID identifies
// the platform admin (or CLI operator) requesting it for the audit trail.
type Params struct {
	Slug         string
	CompanyName  string
	CompanyEmail string
	PlanCode     string
	ActorID      string
}

// Result reports the outcome of a successful provisioning run.
type Result struct {
	Slug               string
	SchemaName         string
	ProvisioningStatus string
	SubscriptionStatus string
	TrialEndsAt        *time.Time
}

// Options carry environment-level settings for new partitions.
type Options struct {
	PartitionHost string
	PartitionPort int
	DatabaseName  string
	CreateTimeout time.Duration
	InitTimeout   time.Duration
}

// Provisioner runs the multi-step partition creation flow. Concurrent
// attempts for the same slug are rejected; different slugs proceed in
// parallel.
type Provisioner struct {
	store      Store
	partitions PartitionAdmin
	registry   *tenant.Registry
	cache      *tenant.Cache
	cipher     secrets.Cipher
	auditor    *audit.Auditor
	logger     *zap.Logger
	opts       Options

	mu       sync.Mutex
	inflight map[string]struct{}
}

func New(
	store Store,
	partitions PartitionAdmin,
	registry *tenant.Registry,
	cipher secrets.Cipher,
	logger *zap.Logger,
	opts Options,
) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		store:      store,
		partitions: partitions,
		registry:   registry,
		cipher:     cipher,
		logger:     logger,
		opts:       opts,
		inflight:   make(map[string]struct{}),
	}
}

// SetCache wires the optional descriptor cache for lifecycle invalidation.
func (p *Provisioner) SetCache(cache *tenant.Cache) {
	p.cache = cache
}

// SetAuditor wires the optional audit trail.
func (p *Provisioner) SetAuditor(auditor *audit.Auditor) {
	p.auditor = auditor
}

func (p *Provisioner) begin(slug string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inflight[slug]; busy {
		return false
	}
	p.inflight[slug] = struct{}{}
	return true
}

func (p *Provisioner) end(slug string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, slug)
}

// Provision creates a tenant partition end to end. Re-invoking for an
// ACTIVE slug returns ErrAlreadyProvisioned; a FAILED slug is recovered on
// the existing record without creating a duplicate.
func (p *Provisioner) Provision(ctx context.Context, params Params) (*Result, error) {
	if err := tenant.ValidateSlug(params.Slug); err != nil {
		return nil, err
	}

	if !p.begin(params.Slug) {
		return nil, fmt.Errorf("%w: %q", ErrProvisioningInProgress, params.Slug)
	}
	defer p.end(params.Slug)

	// Slug availability is checked before the plan so a taken slug is
	// reported as such even when the plan code is also bad.
	record, err := p.store.GetTenant(params.Slug)
	if err != nil {
		return nil, err
	}

	switch {
	case record == nil:
		record = &model.TenantRecord{
			ID:           uuid.NewString(),
			Slug:         params.Slug,
			CompanyName:  params.CompanyName,
			CompanyEmail: params.CompanyEmail,
			PlanCode:     params.PlanCode,
		}
	case record.ProvisioningStatus == model.ProvisioningActive:
		return nil, fmt.Errorf("%w: %q", ErrAlreadyProvisioned, params.Slug)
	case record.ProvisioningStatus == model.ProvisioningProvisioning:
		return nil, fmt.Errorf("%w: %q", ErrProvisioningInProgress, params.Slug)
	case record.ProvisioningStatus == model.ProvisioningFailed:
		p.logger.Info("recovering failed tenant", zap.String("tenant", params.Slug))
	default:
		return nil, fmt.Errorf("%w: %q is %s", ErrSlugTaken, params.Slug, record.ProvisioningStatus)
	}

	plan, err := p.store.GetPlan(params.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, params.PlanCode)
	}

	result, err := p.run(ctx, record, plan)

	if p.auditor != nil {
		p.auditor.Record(audit.ProvisionEvent{
			TenantSlug:   params.Slug,
			PlanCode:     params.PlanCode,
			ActorID:      params.ActorID,
			Success:      err == nil,
			ErrorMessage: errMessage(err),
		})
	}
	return result, err
}

// run executes steps 3-8 on an already-validated record.
func (p *Provisioner) run(ctx context.Context, record *model.TenantRecord, plan *model.SubscriptionPlan) (*Result, error) {
	slug := record.Slug
	schema := tenant.SchemaName(slug)
	user := partitionUser(slug)

	password, err := secrets.GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("%w: generate credential: %v", ErrProvisionFailed, err)
	}
	encrypted, err := p.cipher.Encrypt([]byte(slug), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt credential: %v", ErrProvisionFailed, err)
	}

	record.SchemaName = schema
	record.DatabaseName = p.opts.DatabaseName
	record.DatabaseHost = p.opts.PartitionHost
	record.DatabasePort = p.opts.PartitionPort
	record.DatabaseUser = user
	record.EncryptedPassword = encrypted
	record.ProvisioningStatus = model.ProvisioningProvisioning
	record.ProvisioningError = ""

	// The PROVISIONING record is persisted before any DDL so a second
	// caller (or a crash inspection) can see the attempt.
	isNew := record.CreatedAt.IsZero()
	if isNew {
		err = p.store.CreateTenant(record)
	} else {
		err = p.store.SaveTenant(record)
	}
	if err != nil {
		return nil, err
	}

	createCtx, cancelCreate := context.WithTimeout(ctx, p.opts.CreateTimeout)
	defer cancelCreate()
	if err := p.partitions.CreateSchema(createCtx, schema, user, password); err != nil {
		return nil, p.fail(record, fmt.Errorf("create partition: %w", err))
	}

	desc := tenant.Descriptor{
		Slug:         slug,
		SchemaName:   schema,
		Host:         p.opts.PartitionHost,
		Port:         p.opts.PartitionPort,
		DatabaseName: p.opts.DatabaseName,
		User:         user,
		Password:     password,
	}
	if err := p.registry.Register(desc); err != nil {
		return nil, p.fail(record, fmt.Errorf("register partition: %w", err))
	}

	initCtx, cancelInit := context.WithTimeout(ctx, p.opts.InitTimeout)
	defer cancelInit()
	if err := p.partitions.InitializeTables(initCtx, schema); err != nil {
		p.logger.Warn("schema initialization failed, attempting minimal table creation",
			zap.String("tenant", slug), zap.Error(err))

		if minErr := p.partitions.InitializeMinimalTables(initCtx, schema); minErr != nil {
			// Leave the partition registered but empty for manual
			// inspection; never drop it silently.
			return nil, p.fail(record, fmt.Errorf("initialize tables: %w", err))
		}
	}

	now := time.Now().UTC()
	record.ProvisioningStatus = model.ProvisioningActive
	record.SubscriptionStatus = model.SubscriptionTrial
	record.ProvisionedAt = &now
	if plan.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		record.TrialEndsAt = &trialEnd
	}
	if err := p.store.SaveTenant(record); err != nil {
		return nil, p.fail(record, fmt.Errorf("persist active status: %w", err))
	}

	p.invalidateCache(ctx, slug)
	p.logger.Info("tenant provisioned",
		zap.String("tenant", slug),
		zap.String("schema", schema),
		zap.String("plan", plan.Code),
	)

	return &Result{
		Slug:               slug,
		SchemaName:         schema,
		ProvisioningStatus: record.ProvisioningStatus,
		SubscriptionStatus: record.SubscriptionStatus,
		TrialEndsAt:        record.TrialEndsAt,
	}, nil
}

// fail marks the record FAILED and wraps the cause. A timeout is a failure,
// never success-by-default.
func (p *Provisioner) fail(record *model.TenantRecord, cause error) error {
	record.ProvisioningStatus = model.ProvisioningFailed
	record.ProvisioningError = cause.Error()
	if err := p.store.SaveTenant(record); err != nil {
		p.logger.Error("failed to persist FAILED status",
			zap.String("tenant", record.Slug), zap.Error(err))
	}
	p.logger.Error("provisioning failed", zap.String("tenant", record.Slug), zap.Error(cause))
	return fmt.Errorf("%w: %v", ErrProvisionFailed, cause)
}

// Suspend marks a tenant SUSPENDED and withdraws it from routing. The
// partition itself is retained.
func (p *Provisioner) Suspend(ctx context.Context, slug, actorID string) error {
	return p.lifecycle(ctx, slug, actorID, "suspend", model.ProvisioningSuspended, model.SubscriptionSuspended)
}

// Cancel marks a tenant CANCELLED and withdraws it from routing. The
// partition is retained for export and inspection.
func (p *Provisioner) Cancel(ctx context.Context, slug, actorID string) error {
	return p.lifecycle(ctx, slug, actorID, "cancel", model.ProvisioningCancelled, model.SubscriptionCancelled)
}

func (p *Provisioner) lifecycle(ctx context.Context, slug, actorID, action, provStatus, subStatus string) error {
	// Read and flip the statuses in one transaction so a concurrent
	// lifecycle change cannot interleave between them.
	err := p.store.Transaction(func(tx Store) error {
		record, err := tx.GetTenant(slug)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: %q", ErrTenantNotFound, slug)
		}

		record.ProvisioningStatus = provStatus
		record.SubscriptionStatus = subStatus
		return tx.SaveTenant(record)
	})
	if err != nil {
		return err
	}

	p.registry.Deregister(slug)
	p.invalidateCache(ctx, slug)

	if p.auditor != nil {
		p.auditor.Record(audit.LifecycleEvent{TenantSlug: slug, Action: action, ActorID: actorID})
	}
	p.logger.Info("tenant lifecycle change",
		zap.String("tenant", slug), zap.String("action", action))
	return nil
}

func (p *Provisioner) invalidateCache(ctx context.Context, slug string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, slug); err != nil {
		p.logger.Warn("descriptor cache invalidation failed",
			zap.String("tenant", slug), zap.Error(err))
	}
}

// partitionUser derives the login role name for a slug.
func partitionUser(slug string) string {
	return strings.ReplaceAll(slug, "-", "_") + "_user"
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
