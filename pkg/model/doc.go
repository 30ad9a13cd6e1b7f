// Package model defines the database models for complyd.
//
// This package contains GORM models for both partitions. System-partition
// models live in the shared schema and describe tenants, plans, the
// framework template library, subscriptions, and memberships.
// Tenant-partition models map to the fixed table set the provisioner creates
// inside every tenant schema.
//
// # System partition
//
//   - SubscriptionPlan: immutable plan reference data with limits
//   - TenantRecord: tenant row with partition descriptor and usage counters
//   - TemplateNode: one node of the framework template tree
//   - FrameworkSubscription: a tenant's subscription to a framework
//   - Membership: user-to-tenant relationship with a role code
//   - AdminAuditEvent: append-only trail of administrative actions
//
// # Tenant partition
//
//   - TenantNode: tenant-owned copy of a template node
//   - ControlAssignment: a control assigned to a user
//   - AssessmentResponse: a user's response to an assignment
package model
