package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/complyhub/complyd/pkg/authz"
	"github.com/complyhub/complyd/pkg/distribute"
	"github.com/complyhub/complyd/pkg/provision"
	"github.com/complyhub/complyd/pkg/tenant"
)

// errorBody is the uniform error envelope: a stable machine code plus a
// human message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, errorBody{Code: code, Message: message})
}

// codeFor maps core errors to their HTTP status and stable code.
func codeFor(err error) (int, string) {
	switch {
	case errors.Is(err, tenant.ErrInvalidSlug):
		return http.StatusBadRequest, "InvalidSlug"
	case errors.Is(err, provision.ErrUnknownPlan):
		return http.StatusBadRequest, "UnknownPlan"
	case errors.Is(err, provision.ErrSlugTaken):
		return http.StatusConflict, "SlugTaken"
	case errors.Is(err, provision.ErrAlreadyProvisioned):
		return http.StatusConflict, "AlreadyProvisioned"
	case errors.Is(err, provision.ErrProvisioningInProgress):
		return http.StatusConflict, "ProvisioningInProgress"
	case errors.Is(err, provision.ErrTenantNotFound):
		return http.StatusNotFound, "UnknownTenant"
	case errors.Is(err, provision.ErrProvisionFailed):
		return http.StatusInternalServerError, "ProvisionFailed"
	case errors.Is(err, tenant.ErrNoTenantContext):
		return http.StatusBadRequest, "NoTenantContext"
	case errors.Is(err, tenant.ErrUnknownTenant):
		return http.StatusNotFound, "UnknownTenant"
	case errors.Is(err, distribute.ErrTemplateNotFound):
		return http.StatusNotFound, "TemplateNotFound"
	case errors.Is(err, distribute.ErrAlreadySubscribed):
		return http.StatusConflict, "AlreadySubscribed"
	case errors.Is(err, distribute.ErrDistributionInProgress):
		return http.StatusConflict, "DistributionInProgress"
	case errors.Is(err, distribute.ErrLimitExceeded):
		return http.StatusConflict, "LimitExceeded"
	case errors.Is(err, distribute.ErrCustomizationNotAllowed):
		return http.StatusBadRequest, "CustomizationNotAllowed"
	case errors.Is(err, distribute.ErrDistributionFailed):
		return http.StatusInternalServerError, "DistributionFailed"
	case errors.Is(err, authz.ErrNotAMember):
		return http.StatusForbidden, "NotAMember"
	case errors.Is(err, authz.ErrCapabilityMissing):
		return http.StatusForbidden, "CapabilityMissing"
	case errors.Is(err, authz.ErrSeparationOfDuties):
		return http.StatusConflict, "SeparationOfDuties"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func respondWithCoreError(w http.ResponseWriter, err error) {
	status, code := codeFor(err)
	respondWithError(w, status, code, err.Error())
}
