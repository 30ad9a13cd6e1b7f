// Package main provides complyctl, the CLI for the complyd multi-tenant
// compliance platform core.
//
// complyd keeps one shared system partition for tenant directory data and
// one schema-isolated partition per tenant for compliance working data.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/middleware: identity and tenant binding
//   - pkg/tenant: context carrier, partition registry, routing, cache
//   - pkg/provision: tenant partition provisioning
//   - pkg/distribute: framework template distribution
//   - pkg/authz: role bundles and capability resolution
//   - pkg/secrets: data key encryption
//   - pkg/model: database models
//   - pkg/db: database connection utilities
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Generate a data key for encrypting partition credentials
//	complyctl data-key generate > data_key
//	export COMPLYD_DATA_KEY=$(cat data_key)
//
//	# Run system partition migrations
//	complyctl db migrate
//
//	# Start the server
//	complyctl server
//
//	# Provision a tenant
//	complyctl tenant create acme-corp --plan premium
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string for the system partition
//   - COMPLYD_DATA_KEY: Base64-encoded 256-bit key for credential encryption
//   - COMPLYD_LOG_LEVEL: Log level (debug, info, warn, error)
//   - COMPLYD_ROLES_FILE: Path to the role bundle definitions
//   - PORT: Server port (default: 8080)
package main
