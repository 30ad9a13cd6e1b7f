package audit

import "fmt"

// ProvisionEvent records a tenant provisioning attempt.
type ProvisionEvent struct {
	TenantSlug   string
	PlanCode     string
	ActorID      string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e ProvisionEvent) MessageID() string {
	return "provision"
}

func (e ProvisionEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("tenant %s provisioned on plan %s", e.TenantSlug, e.PlanCode)
	}
	msg := fmt.Sprintf("tenant %s failed to provision on plan %s", e.TenantSlug, e.PlanCode)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ProvisionEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ProvisionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ProvisionEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	sd := map[string]map[string]string{
		SDIDTenant: {
			"slug": e.TenantSlug,
			"plan": e.PlanCode,
		},
		SDIDAction: {
			"operation": "provision",
			"result":    result,
		},
	}
	if e.ActorID != "" {
		sd[SDIDSubject] = map[string]string{"user": e.ActorID}
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}

// LifecycleEvent records a tenant suspend or cancel.
type LifecycleEvent struct {
	TenantSlug string
	Action     string // "suspend", "cancel"
	ActorID    string
	ClientIP   string
}

func (e LifecycleEvent) MessageID() string {
	return "lifecycle"
}

func (e LifecycleEvent) Message() string {
	return fmt.Sprintf("tenant %s %s requested", e.TenantSlug, e.Action)
}

func (e LifecycleEvent) Severity() Severity {
	return SeverityNotice
}

func (e LifecycleEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LifecycleEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDTenant: {
			"slug": e.TenantSlug,
		},
		SDIDAction: {
			"operation": e.Action,
		},
	}
	if e.ActorID != "" {
		sd[SDIDSubject] = map[string]string{"user": e.ActorID}
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}

// DistributionEvent records a framework distribution attempt.
type DistributionEvent struct {
	TenantSlug         string
	FrameworkID        string
	FrameworkName      string
	CustomizationLevel string
	NodesCreated       int
	ActorID            string
	Success            bool
	FailingPath        string
	ErrorMessage       string
}

func (e DistributionEvent) MessageID() string {
	return "distribute"
}

func (e DistributionEvent) Message() string {
	name := e.FrameworkName
	if name == "" {
		name = e.FrameworkID
	}
	if e.Success {
		return fmt.Sprintf("framework %s distributed to tenant %s (%d nodes)", name, e.TenantSlug, e.NodesCreated)
	}
	msg := fmt.Sprintf("framework %s failed to distribute to tenant %s", name, e.TenantSlug)
	if e.FailingPath != "" {
		msg += " at " + e.FailingPath
	}
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e DistributionEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e DistributionEvent) Facility() int {
	return FacilityAuthPriv
}

func (e DistributionEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	sd := map[string]map[string]string{
		SDIDTenant: {
			"slug": e.TenantSlug,
		},
		SDIDSubject: {
			"framework":     e.FrameworkID,
			"customization": e.CustomizationLevel,
		},
		SDIDAction: {
			"operation": "distribute",
			"result":    result,
		},
	}
	if e.FailingPath != "" {
		sd[SDIDSubject]["path"] = e.FailingPath
	}
	if e.ActorID != "" {
		sd[SDIDSubject]["user"] = e.ActorID
	}
	return sd
}

// PermissionDeniedEvent records a denied capability check. Denials are
// security-relevant; grants are not logged here.
type PermissionDeniedEvent struct {
	UserID     string
	TenantSlug string
	Capability string
	Reason     string
	ClientIP   string
}

func (e PermissionDeniedEvent) MessageID() string {
	return "authz"
}

func (e PermissionDeniedEvent) Message() string {
	msg := fmt.Sprintf("%s denied %s in tenant %s", e.UserID, e.Capability, e.TenantSlug)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e PermissionDeniedEvent) Severity() Severity {
	return SeverityWarning
}

func (e PermissionDeniedEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PermissionDeniedEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"user":       e.UserID,
			"capability": e.Capability,
		},
		SDIDTenant: {
			"slug": e.TenantSlug,
		},
		SDIDAction: {
			"operation": "check",
			"result":    "failure",
		},
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	return sd
}
