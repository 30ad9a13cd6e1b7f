package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/server/middleware"
)

type distributeRequest struct {
	FrameworkTemplateID string `json:"framework_template_id"`
	CustomizationLevel  string `json:"customization_level"`
}

type distributeResponse struct {
	SubscriptionID  string `json:"subscription_id"`
	NodesCreated    int    `json:"nodes_created"`
	ControlsCreated int    `json:"controls_created"`
}

// RegisterFrameworkEndpoints registers framework distribution routes.
func RegisterFrameworkEndpoints(s *server.Server) {
	s.Router.HandleFunc("/tenants/{slug}/frameworks", handleDistributeFramework(s)).Methods("POST")
}

func handleDistributeFramework(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := mux.Vars(r)["slug"]

		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}

		var req distributeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
			return
		}

		if _, err := s.Resolver.Require(userID, slug, authz.CapManageFrameworks); err != nil {
			recordDenial(s, r, userID, slug, authz.CapManageFrameworks, err)
			respondWithCoreError(w, err)
			return
		}

		result, err := s.Engine.Distribute(r.Context(), slug, req.FrameworkTemplateID, req.CustomizationLevel)
		if err != nil {
			respondWithCoreError(w, err)
			return
		}

		respondWithJSON(w, http.StatusCreated, distributeResponse{
			SubscriptionID:  result.SubscriptionID,
			NodesCreated:    result.NodesCreated,
			ControlsCreated: result.ControlsCreated,
		})
	}
}

func recordDenial(s *server.Server, r *http.Request, userID, slug, capability string, err error) {
	reason := "capability missing"
	if errors.Is(err, authz.ErrNotAMember) {
		reason = "not an active member"
	}
	recordDenialEvent(s, r, userID, slug, capability, reason)
}

func recordDenialEvent(s *server.Server, r *http.Request, userID, slug, capability, reason string) {
	s.Auditor.Record(audit.PermissionDeniedEvent{
		UserID:     userID,
		TenantSlug: slug,
		Capability: capability,
		Reason:     reason,
		ClientIP:   r.RemoteAddr,
	})
}
