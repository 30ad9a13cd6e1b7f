package provision

import (
	"fmt"

	"github.com/lib/pq"
)

// The fixed tenant-scoped table set. Every tenant partition gets exactly
// these tables; per-tenant structural divergence is not supported.

func nodesDDL(schema string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.tenant_nodes (
	id uuid PRIMARY KEY,
	kind text NOT NULL,
	parent_id uuid REFERENCES %s.tenant_nodes(id),
	template_origin_id uuid NOT NULL,
	code text NOT NULL,
	name text NOT NULL,
	description text NOT NULL DEFAULT '',
	objective text NOT NULL DEFAULT '',
	control_type text NOT NULL DEFAULT '',
	frequency text NOT NULL DEFAULT '',
	risk_level text NOT NULL DEFAULT '',
	can_customize boolean NOT NULL DEFAULT false,
	is_customized boolean NOT NULL DEFAULT false,
	custom_title text NOT NULL DEFAULT '',
	custom_description text NOT NULL DEFAULT '',
	custom_procedures text NOT NULL DEFAULT '',
	is_archived boolean NOT NULL DEFAULT false,
	sort_order integer NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`, pq.QuoteIdentifier(schema), pq.QuoteIdentifier(schema))
}

func assignmentsDDL(schema string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.control_assignments (
	id uuid PRIMARY KEY,
	control_node_id uuid NOT NULL REFERENCES %s.tenant_nodes(id),
	assigned_to_user_id text NOT NULL,
	assigned_by_user_id text NOT NULL,
	status text NOT NULL DEFAULT 'OPEN',
	due_date timestamptz,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`, pq.QuoteIdentifier(schema), pq.QuoteIdentifier(schema))
}

func responsesDDL(schema string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.assessment_responses (
	id uuid PRIMARY KEY,
	assignment_id uuid NOT NULL REFERENCES %s.control_assignments(id),
	submitted_by_user_id text NOT NULL,
	response_text text NOT NULL DEFAULT '',
	status text NOT NULL DEFAULT 'DRAFT',
	approved_by_user_id text NOT NULL DEFAULT '',
	submitted_at timestamptz,
	decided_at timestamptz,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
)`, pq.QuoteIdentifier(schema), pq.QuoteIdentifier(schema))
}

// tenantTableDDL returns the full table set in dependency order.
func tenantTableDDL(schema string) []string {
	return []string{
		nodesDDL(schema),
		assignmentsDDL(schema),
		responsesDDL(schema),
	}
}

// minimalTableDDL is the forced fallback: just the node table, enough for a
// partition to hold distributed content while an operator repairs the rest.
func minimalTableDDL(schema string) []string {
	return []string{
		nodesDDL(schema),
	}
}
