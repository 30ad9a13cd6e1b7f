package tenant

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/secrets"
)

// ErrTenantNotRegistered is returned when the registry holds no handle for a
// slug.
var ErrTenantNotRegistered = errors.New("tenant not registered")

// Descriptor locates one tenant's partition. Password is held decrypted in
// memory only; at rest it lives AES-GCM sealed on the tenant record.
type Descriptor struct {
	Slug         string `json:"slug"`
	SchemaName   string `json:"schema_name"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	DatabaseName string `json:"database_name"`
	User         string `json:"user"`
	Password     string `json:"-"`
}

// DSN renders the descriptor as a postgres connection string pinned to the
// tenant schema via search_path.
func (d Descriptor) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password),
		d.Host, d.Port, d.DatabaseName, d.SchemaName,
	)
}

// Opener turns a descriptor into a live database handle. Swappable in tests.
type Opener func(Descriptor) (*gorm.DB, error)

// DefaultOpener opens a gorm/postgres session pinned to the descriptor's
// schema.
func DefaultOpener(desc Descriptor) (*gorm.DB, error) {
	return gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  desc.DSN(),
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
}

type entry struct {
	desc Descriptor
	db   *gorm.DB
}

// Registry maps tenant slugs to live partition handles. All methods are safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	open    Opener
	entries map[string]*entry
}

// NewRegistry creates an empty registry. A nil opener falls back to
// DefaultOpener.
func NewRegistry(open Opener) *Registry {
	if open == nil {
		open = DefaultOpener
	}
	return &Registry{
		open:    open,
		entries: make(map[string]*entry),
	}
}

// Register opens a handle for the descriptor and installs it, replacing any
// existing registration for the same slug. The displaced handle's connection
// pool is closed.
func (r *Registry) Register(desc Descriptor) error {
	db, err := r.open(desc)
	if err != nil {
		return fmt.Errorf("failed to open partition for %q: %w", desc.Slug, err)
	}

	r.mu.Lock()
	prev := r.entries[desc.Slug]
	r.entries[desc.Slug] = &entry{desc: desc, db: db}
	r.mu.Unlock()

	closeHandle(prev)
	return nil
}

// Resolve returns the partition handle for a slug.
func (r *Registry) Resolve(slug string) (*gorm.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTenantNotRegistered, slug)
	}
	return e.db, nil
}

// Descriptor returns the registered descriptor for a slug.
func (r *Registry) Descriptor(slug string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[slug]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrTenantNotRegistered, slug)
	}
	return e.desc, nil
}

// Deregister removes a slug and closes its connection pool. Removing an
// unknown slug is a no-op.
func (r *Registry) Deregister(slug string) {
	r.mu.Lock()
	prev := r.entries[slug]
	delete(r.entries, slug)
	r.mu.Unlock()

	closeHandle(prev)
}

// closeHandle releases the entry's underlying sql.DB pool. Suspend and
// re-provision churn would otherwise leak connections.
func closeHandle(e *entry) {
	if e == nil {
		return
	}
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Slugs returns the registered slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slugs := make([]string, 0, len(r.entries))
	for slug := range r.entries {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// LoadActive registers every ACTIVE tenant from the system partition,
// decrypting each partition credential with the cipher. Called at startup
// before the server accepts traffic.
func (r *Registry) LoadActive(system *gorm.DB, cipher secrets.Cipher) error {
	var records []model.TenantRecord
	err := system.
		Where("provisioning_status = ?", model.ProvisioningActive).
		Find(&records).Error
	if err != nil {
		return fmt.Errorf("failed to load active tenants: %w", err)
	}

	for _, record := range records {
		password, err := cipher.Decrypt([]byte(record.Slug), record.EncryptedPassword)
		if err != nil {
			return fmt.Errorf("failed to decrypt credential for %q: %w", record.Slug, err)
		}

		desc := Descriptor{
			Slug:         record.Slug,
			SchemaName:   record.SchemaName,
			Host:         record.DatabaseHost,
			Port:         record.DatabasePort,
			DatabaseName: record.DatabaseName,
			User:         record.DatabaseUser,
			Password:     string(password),
		}
		if err := r.Register(desc); err != nil {
			return err
		}
	}
	return nil
}
