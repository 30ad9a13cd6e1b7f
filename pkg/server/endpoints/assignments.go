package endpoints

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/middleware"
	"github.com/complyhub/complyd/pkg/tenant"
)

type assignmentResponse struct {
	ID               string     `json:"id"`
	ControlNodeID    string     `json:"control_node_id"`
	AssignedToUserID string     `json:"assigned_to_user_id"`
	Status           string     `json:"status"`
	DueDate          *time.Time `json:"due_date,omitempty"`
}

type responseResponse struct {
	ID                string     `json:"id"`
	AssignmentID      string     `json:"assignment_id"`
	Status            string     `json:"status"`
	SubmittedByUserID string     `json:"submitted_by_user_id,omitempty"`
	ApprovedByUserID  string     `json:"approved_by_user_id,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
}

// RegisterWorkflowEndpoints registers the tenant-scoped assignment and
// response routes. These live under the /t/{slug}/ prefix so the tenant
// binder resolves the partition before the handler runs.
func RegisterWorkflowEndpoints(s *server.Server) {
	s.Router.HandleFunc("/t/{slug}/assignments", handleListAssignments(s)).Methods("GET")
	s.Router.HandleFunc("/t/{slug}/responses/{id}/submit", handleSubmitResponse(s)).Methods("POST")
	s.Router.HandleFunc("/t/{slug}/responses/{id}/approve", handleDecideResponse(s, model.ResponseApproved)).Methods("POST")
	s.Router.HandleFunc("/t/{slug}/responses/{id}/reject", handleDecideResponse(s, model.ResponseRejected)).Methods("POST")
}

// workflowContext resolves the actor, their capability set and the tenant
// partition handle shared by every workflow handler.
func workflowContext(s *server.Server, r *http.Request) (string, authz.CapabilitySet, *gorm.DB, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", nil, nil, errors.New("authentication required")
	}

	slug, ok := tenant.FromContext(r.Context())
	if !ok {
		return "", nil, nil, tenant.ErrNoTenantContext
	}

	set, err := s.Resolver.Resolve(userID, slug)
	if err != nil {
		return userID, nil, nil, err
	}

	db, err := s.Tenants.TargetFor(r.Context(), tenant.DomainTenant)
	if err != nil {
		return userID, nil, nil, err
	}
	return userID, set, db, nil
}

func handleListAssignments(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, set, db, err := workflowContext(s, r)
		if err != nil {
			respondWithWorkflowError(s, w, r, userID, authz.CapViewOwnAssignments, err)
			return
		}

		if !set.Has(authz.CapViewOwnAssignments) && !set.Has(authz.CapViewResponses) {
			err := errors.New("capability missing: " + authz.CapViewOwnAssignments)
			recordDenialBound(s, r, userID, authz.CapViewOwnAssignments)
			respondWithError(w, http.StatusForbidden, "CapabilityMissing", err.Error())
			return
		}

		var assignments []model.ControlAssignment
		err = db.Scopes(authz.ScopeToOwner(set, userID)).
			Order("created_at").
			Find(&assignments).Error
		if err != nil {
			respondWithCoreError(w, err)
			return
		}

		responses := make([]assignmentResponse, 0, len(assignments))
		for _, a := range assignments {
			responses = append(responses, assignmentResponse{
				ID:               a.ID,
				ControlNodeID:    a.ControlNodeID,
				AssignedToUserID: a.AssignedToUserID,
				Status:           a.Status,
				DueDate:          a.DueDate,
			})
		}
		respondWithJSON(w, http.StatusOK, responses)
	}
}

func handleSubmitResponse(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseID := mux.Vars(r)["id"]

		userID, set, db, err := workflowContext(s, r)
		if err != nil {
			respondWithWorkflowError(s, w, r, userID, authz.CapSubmitResponses, err)
			return
		}
		if !set.Has(authz.CapSubmitResponses) {
			recordDenialBound(s, r, userID, authz.CapSubmitResponses)
			respondWithError(w, http.StatusForbidden, "CapabilityMissing",
				"capability missing: "+authz.CapSubmitResponses)
			return
		}

		var response model.AssessmentResponse
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", responseID).First(&response).Error; err != nil {
				return err
			}
			if response.Status != model.ResponseDraft {
				return errInvalidState(response.Status, model.ResponseDraft)
			}

			// Only the assignee submits their own answer.
			var assignment model.ControlAssignment
			if err := tx.Where("id = ?", response.AssignmentID).First(&assignment).Error; err != nil {
				return err
			}
			if assignment.AssignedToUserID != userID {
				return errNotAssignee
			}

			now := time.Now()
			response.Status = model.ResponseSubmitted
			response.SubmittedByUserID = userID
			response.SubmittedAt = &now
			return tx.Save(&response).Error
		})
		if err != nil {
			respondWithWorkflowStateError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, responseFromRecord(response))
	}
}

// handleDecideResponse approves or rejects a submitted answer. The decider
// must hold approve_responses and differ from the submitter.
func handleDecideResponse(s *server.Server, decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseID := mux.Vars(r)["id"]

		userID, set, db, err := workflowContext(s, r)
		if err != nil {
			respondWithWorkflowError(s, w, r, userID, authz.CapApproveResponses, err)
			return
		}
		if !set.Has(authz.CapApproveResponses) {
			recordDenialBound(s, r, userID, authz.CapApproveResponses)
			respondWithError(w, http.StatusForbidden, "CapabilityMissing",
				"capability missing: "+authz.CapApproveResponses)
			return
		}

		var response model.AssessmentResponse
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", responseID).First(&response).Error; err != nil {
				return err
			}
			if response.Status != model.ResponseSubmitted {
				return errInvalidState(response.Status, model.ResponseSubmitted)
			}
			if err := authz.RequireDistinctActor(userID, response.SubmittedByUserID); err != nil {
				return err
			}

			now := time.Now()
			response.Status = decision
			response.ApprovedByUserID = userID
			response.DecidedAt = &now
			return tx.Save(&response).Error
		})
		if err != nil {
			respondWithWorkflowStateError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, responseFromRecord(response))
	}
}

func responseFromRecord(record model.AssessmentResponse) responseResponse {
	return responseResponse{
		ID:                record.ID,
		AssignmentID:      record.AssignmentID,
		Status:            record.Status,
		SubmittedByUserID: record.SubmittedByUserID,
		ApprovedByUserID:  record.ApprovedByUserID,
		SubmittedAt:       record.SubmittedAt,
		DecidedAt:         record.DecidedAt,
	}
}

var errNotAssignee = errors.New("response belongs to another user's assignment")

type invalidStateError struct {
	got, want string
}

func errInvalidState(got, want string) error {
	return invalidStateError{got: got, want: want}
}

func (e invalidStateError) Error() string {
	return "response is " + e.got + ", expected " + e.want
}

func respondWithWorkflowStateError(w http.ResponseWriter, err error) {
	var state invalidStateError
	switch {
	case errors.As(err, &state):
		respondWithError(w, http.StatusConflict, "InvalidResponseState", err.Error())
	case errors.Is(err, errNotAssignee):
		respondWithError(w, http.StatusForbidden, "NotAssignmentOwner", err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondWithError(w, http.StatusNotFound, "UnknownResponse", "no such response")
	default:
		respondWithCoreError(w, err)
	}
}

// respondWithWorkflowError handles failures before the handler body runs:
// missing identity, missing tenant binding, or membership resolution.
func respondWithWorkflowError(s *server.Server, w http.ResponseWriter, r *http.Request, userID, capability string, err error) {
	if userID == "" {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	if errors.Is(err, authz.ErrNotAMember) {
		recordDenialBound(s, r, userID, capability)
	}
	respondWithCoreError(w, err)
}

func recordDenialBound(s *server.Server, r *http.Request, userID, capability string) {
	slug, _ := tenant.FromContext(r.Context())
	decision, err := s.Resolver.Check(userID, slug, capability)
	reason := decision.Reason
	if err != nil || reason == "" {
		reason = "capability missing"
	}
	recordDenialEvent(s, r, userID, slug, capability, reason)
}
