package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/complyhub/complyd/pkg/model"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/middleware"
)

// TenantDirectory reads tenant records for the listing endpoints.
// Satisfied by the provisioner's gorm store.
type TenantDirectory interface {
	GetTenant(slug string) (*model.TenantRecord, error)
	ListTenants() ([]model.TenantRecord, error)
}

type createTenantRequest struct {
	Slug         string `json:"slug"`
	CompanyName  string `json:"company_name"`
	CompanyEmail string `json:"company_email"`
	PlanCode     string `json:"plan_code"`
}

type tenantResponse struct {
	Slug               string     `json:"slug"`
	CompanyName        string     `json:"company_name,omitempty"`
	SchemaName         string     `json:"schema_name"`
	PlanCode           string     `json:"plan_code,omitempty"`
	ProvisioningStatus string     `json:"provisioning_status"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	FrameworkCount     int        `json:"framework_count"`
	ControlCount       int        `json:"control_count"`
}

func tenantResponseFromRecord(record model.TenantRecord) tenantResponse {
	return tenantResponse{
		Slug:               record.Slug,
		CompanyName:        record.CompanyName,
		SchemaName:         record.SchemaName,
		PlanCode:           record.PlanCode,
		ProvisioningStatus: record.ProvisioningStatus,
		SubscriptionStatus: record.SubscriptionStatus,
		TrialEndsAt:        record.TrialEndsAt,
		FrameworkCount:     record.CurrentFrameworkCount,
		ControlCount:       record.CurrentControlCount,
	}
}

// RegisterTenantEndpoints registers tenant lifecycle and directory routes.
// All of them require a platform admin; tenant roles never reach them.
func RegisterTenantEndpoints(s *server.Server, directory TenantDirectory) {
	s.Router.HandleFunc("/tenants", handleCreateTenant(s)).Methods("POST")
	s.Router.HandleFunc("/tenants", handleListTenants(s, directory)).Methods("GET")
	s.Router.HandleFunc("/tenants/{slug}", handleGetTenant(s, directory)).Methods("GET")
	s.Router.HandleFunc("/tenants/{slug}/suspend", handleSuspendTenant(s)).Methods("POST")
}

// requirePlatformAdmin authenticates the caller and checks the configured
// admin list. Denials land in the audit trail with the attempted operation.
func requirePlatformAdmin(s *server.Server, w http.ResponseWriter, r *http.Request, slug string) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return "", false
	}
	if !s.Admins.IsAdmin(userID) {
		recordDenialEvent(s, r, userID, slug, "platform_admin", "not a platform admin")
		respondWithError(w, http.StatusForbidden, "NotPlatformAdmin", "platform administrator access required")
		return "", false
	}
	return userID, true
}

func handleCreateTenant(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requirePlatformAdmin(s, w, r, "")
		if !ok {
			return
		}

		var req createTenantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
			return
		}

		result, err := s.Provisioner.Provision(r.Context(), provision.Params{
			Slug:         req.Slug,
			CompanyName:  req.CompanyName,
			CompanyEmail: req.CompanyEmail,
			PlanCode:     req.PlanCode,
			ActorID:      userID,
		})
		if err != nil {
			respondWithCoreError(w, err)
			return
		}

		respondWithJSON(w, http.StatusCreated, tenantResponse{
			Slug:               result.Slug,
			SchemaName:         result.SchemaName,
			ProvisioningStatus: result.ProvisioningStatus,
			SubscriptionStatus: result.SubscriptionStatus,
			TrialEndsAt:        result.TrialEndsAt,
		})
	}
}

func handleListTenants(s *server.Server, directory TenantDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requirePlatformAdmin(s, w, r, ""); !ok {
			return
		}

		records, err := directory.ListTenants()
		if err != nil {
			respondWithCoreError(w, err)
			return
		}

		responses := make([]tenantResponse, 0, len(records))
		for _, record := range records {
			responses = append(responses, tenantResponseFromRecord(record))
		}
		respondWithJSON(w, http.StatusOK, responses)
	}
}

func handleGetTenant(s *server.Server, directory TenantDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]

		if _, ok := requirePlatformAdmin(s, w, r, slug); !ok {
			return
		}

		record, err := directory.GetTenant(slug)
		if err != nil {
			respondWithCoreError(w, err)
			return
		}
		if record == nil {
			respondWithError(w, http.StatusNotFound, "UnknownTenant", "no tenant with slug "+slug)
			return
		}
		respondWithJSON(w, http.StatusOK, tenantResponseFromRecord(*record))
	}
}

func handleSuspendTenant(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]

		userID, ok := requirePlatformAdmin(s, w, r, slug)
		if !ok {
			return
		}

		if err := s.Provisioner.Suspend(r.Context(), slug, userID); err != nil {
			respondWithCoreError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{
			"slug":   slug,
			"status": model.ProvisioningSuspended,
		})
	}
}
