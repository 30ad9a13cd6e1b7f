package endpoints

import (
	"net/http"

	"github.com/complyhub/complyd/pkg/audit"
	"github.com/complyhub/complyd/pkg/server"
	"github.com/complyhub/complyd/pkg/tenant"
)

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// RegisterPermissionEndpoints registers the capability check route.
func RegisterPermissionEndpoints(s *server.Server) {
	s.Router.HandleFunc("/permissions/check", handleCheckPermission(s)).Methods("GET")
}

// handleCheckPermission answers "would user X be allowed capability Y in
// tenant Z". The tenant comes from the bound context or the tenant query
// parameter.
func handleCheckPermission(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		capability := r.URL.Query().Get("capability")
		slug := r.URL.Query().Get("tenant")
		if slug == "" {
			slug, _ = tenant.FromContext(r.Context())
		}

		if userID == "" || capability == "" || slug == "" {
			respondWithError(w, http.StatusBadRequest, "InvalidRequest",
				"user, capability and tenant are required")
			return
		}

		decision, err := s.Resolver.Check(userID, slug, capability)
		if err != nil {
			respondWithCoreError(w, err)
			return
		}

		if !decision.Allowed {
			s.Auditor.Record(audit.PermissionDeniedEvent{
				UserID:     userID,
				TenantSlug: slug,
				Capability: capability,
				Reason:     decision.Reason,
				ClientIP:   r.RemoteAddr,
			})
		}

		respondWithJSON(w, http.StatusOK, checkResponse{
			Allowed: decision.Allowed,
			Reason:  decision.Reason,
		})
	}
}
