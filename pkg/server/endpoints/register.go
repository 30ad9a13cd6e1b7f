// Package endpoints implements the REST handlers over the platform core.
package endpoints

import "github.com/complyhub/complyd/pkg/server"

// RegisterAll registers every endpoint group on the server.
func RegisterAll(srv *server.Server, directory TenantDirectory) {
	RegisterTenantEndpoints(srv, directory)
	RegisterFrameworkEndpoints(srv)
	RegisterWorkflowEndpoints(srv)
	RegisterPermissionEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
