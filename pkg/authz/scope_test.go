package authz

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/complyhub/complyd/pkg/model"
)

func dryRunDB(t *testing.T) *gorm.DB {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
			DryRun: true,
		},
	)
	require.NoError(t, err)
	return db
}

func TestScopeToOwnerNarrowsWithoutElevation(t *testing.T) {
	db := dryRunDB(t)
	set := CapabilitySet{CapViewOwnAssignments: true}

	stmt := db.Scopes(ScopeToOwner(set, "bob")).Find(&[]model.ControlAssignment{}).Statement
	assert.Contains(t, stmt.SQL.String(), "assigned_to_user_id")
	assert.Contains(t, stmt.Vars, "bob")
}

func TestScopeToOwnerSkipsForElevatedVisibility(t *testing.T) {
	db := dryRunDB(t)
	set := CapabilitySet{CapViewResponses: true}

	stmt := db.Scopes(ScopeToOwner(set, "alice")).Find(&[]model.ControlAssignment{}).Statement
	assert.NotContains(t, stmt.SQL.String(), "assigned_to_user_id")
}

func TestRequireDistinctActor(t *testing.T) {
	assert.NoError(t, RequireDistinctActor("alice", "bob"))

	err := RequireDistinctActor("bob", "bob")
	assert.ErrorIs(t, err, ErrSeparationOfDuties)
}
