package authz

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrSeparationOfDuties is returned when an action requires a distinct
// actor from a prior action on the same entity.
var ErrSeparationOfDuties = errors.New("separation of duties violation")

// ScopeToOwner returns a gorm scope narrowing a query to rows owned by
// userID unless the capability set carries elevated visibility
// (view_responses). Applied to assignment and response listings.
func ScopeToOwner(set CapabilitySet, userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if set.Has(CapViewResponses) {
			return db
		}
		return db.Where("assigned_to_user_id = ?", userID)
	}
}

// RequireDistinctActor enforces separation of duties: the acting user must
// differ from the prior actor on the same entity. Data-dependent, so it is
// checked at the call site even when the actor holds the approving
// capability.
func RequireDistinctActor(actorID, priorActorID string) error {
	if actorID == priorActorID {
		return fmt.Errorf("%w: actor %q performed the prior action", ErrSeparationOfDuties, actorID)
	}
	return nil
}
