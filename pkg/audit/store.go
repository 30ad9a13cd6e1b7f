package audit

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/model"
)

// Store persists audit events as rows of the admin_audit_events trail in the
// system partition. A nil store drops events silently; syslog output still
// happens through the Logger.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save appends one event to the trail. Structured data is flattened to JSON
// in the detail column.
func (s *Store) Save(event Event) error {
	if s == nil || s.db == nil {
		return nil
	}

	detail, err := json.Marshal(event.StructuredData())
	if err != nil {
		return err
	}

	row := model.AdminAuditEvent{
		ID:         uuid.NewString(),
		ActorID:    actorOf(event),
		Action:     event.MessageID(),
		TenantSlug: tenantOf(event),
		RemoteIP:   clientOf(event),
		Detail:     string(detail),
	}
	return s.db.Create(&row).Error
}

func actorOf(event Event) string {
	if subject, ok := event.StructuredData()[SDIDSubject]; ok {
		return subject["user"]
	}
	return ""
}

func tenantOf(event Event) string {
	if t, ok := event.StructuredData()[SDIDTenant]; ok {
		return t["slug"]
	}
	return ""
}

func clientOf(event Event) string {
	if c, ok := event.StructuredData()[SDIDClient]; ok {
		return c["ip"]
	}
	return ""
}

// Auditor couples the syslog logger with the persistent trail so callers
// emit once.
type Auditor struct {
	logger *Logger
	store  *Store
}

func NewAuditor(logger *Logger, store *Store) *Auditor {
	if logger == nil {
		logger = NewLogger()
	}
	return &Auditor{logger: logger, store: store}
}

// Record logs the event and appends it to the trail. Trail failures are not
// fatal to the calling operation.
func (a *Auditor) Record(event Event) {
	if a == nil {
		return
	}
	a.logger.Log(event)
	_ = a.store.Save(event)
}
