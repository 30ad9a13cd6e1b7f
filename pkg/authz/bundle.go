// Package authz resolves user capabilities inside a tenant: role bundles
// loaded from YAML, membership lookup, query scoping for non-elevated users,
// and the separation-of-duties check.
package authz

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Capability names. The set is fixed; role bundles pick from it.
const (
	CapManageUsers        = "manage_users"
	CapManageFrameworks   = "manage_frameworks"
	CapAssignControls     = "assign_controls"
	CapReviewResponses    = "review_responses"
	CapSubmitResponses    = "submit_responses"
	CapApproveResponses   = "approve_responses"
	CapViewOwnAssignments = "view_own_assignments"
	CapViewResponses      = "view_responses"
	CapCustomizeControls  = "customize_controls"
	CapUploadEvidence     = "upload_evidence"
	CapVerifyEvidence     = "verify_evidence"
	CapViewReports        = "view_reports"
	CapExportData         = "export_data"
	CapManageSettings     = "manage_settings"
	CapViewAuditLogs      = "view_audit_logs"
)

// CapabilitySet is the resolved set of capabilities for a user in a tenant.
type CapabilitySet map[string]bool

// Has reports whether the set contains a capability.
func (s CapabilitySet) Has(capability string) bool {
	return s[capability]
}

type bundleFile struct {
	Roles map[string]struct {
		Description  string   `yaml:"description"`
		Capabilities []string `yaml:"capabilities"`
	} `yaml:"roles"`
}

// Bundle maps role codes to capability sets, loaded from a YAML file.
// Reload swaps the whole mapping atomically; a file watcher can drive
// reloads without a restart.
type Bundle struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	roles map[string]CapabilitySet
}

// LoadBundle reads the role definitions from path.
func LoadBundle(path string, logger *zap.Logger) (*Bundle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bundle{path: path, logger: logger}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the file and swaps the role mapping. A parse failure
// leaves the previous mapping in place.
func (b *Bundle) Reload() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("failed to read role bundle %s: %w", b.path, err)
	}

	var file bundleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse role bundle %s: %w", b.path, err)
	}
	if len(file.Roles) == 0 {
		return fmt.Errorf("role bundle %s defines no roles", b.path)
	}

	roles := make(map[string]CapabilitySet, len(file.Roles))
	for code, role := range file.Roles {
		set := make(CapabilitySet, len(role.Capabilities))
		for _, capability := range role.Capabilities {
			set[capability] = true
		}
		roles[code] = set
	}

	b.mu.Lock()
	b.roles = roles
	b.mu.Unlock()

	b.logger.Info("role bundle loaded",
		zap.String("path", b.path), zap.Int("roles", len(roles)))
	return nil
}

// Capabilities returns the capability set for a role code. Unknown roles
// get an empty set.
func (b *Bundle) Capabilities(roleCode string) CapabilitySet {
	b.mu.RLock()
	defer b.mu.RUnlock()

	set, ok := b.roles[roleCode]
	if !ok {
		return CapabilitySet{}
	}
	// Copy so callers can't mutate the shared mapping.
	out := make(CapabilitySet, len(set))
	for capability := range set {
		out[capability] = true
	}
	return out
}

// RoleCodes returns the defined role codes.
func (b *Bundle) RoleCodes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	codes := make([]string, 0, len(b.roles))
	for code := range b.roles {
		codes = append(codes, code)
	}
	return codes
}

// Watch reloads the bundle whenever the file is written. It blocks until
// stop is closed; run it in its own goroutine.
func (b *Bundle) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(b.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", b.path, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := b.Reload(); err != nil {
					b.logger.Error("role bundle reload failed", zap.Error(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("role bundle watcher error", zap.Error(err))
		case <-stop:
			return nil
		}
	}
}
