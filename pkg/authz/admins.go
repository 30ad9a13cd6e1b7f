package authz

import "strings"

// PlatformAdmins is the configured set of subjects allowed to run tenant
// lifecycle operations. Membership is configured at deploy time; tenant
// roles never grant it.
type PlatformAdmins struct {
	subjects map[string]struct{}
}

// NewPlatformAdmins builds the set from configured subject ids. Blank
// entries are dropped.
func NewPlatformAdmins(subjects []string) *PlatformAdmins {
	set := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject != "" {
			set[subject] = struct{}{}
		}
	}
	return &PlatformAdmins{subjects: set}
}

// IsAdmin reports whether userID is a configured platform admin. A nil
// receiver admits nobody.
func (a *PlatformAdmins) IsAdmin(userID string) bool {
	if a == nil || userID == "" {
		return false
	}
	_, ok := a.subjects[userID]
	return ok
}
