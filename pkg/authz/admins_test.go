package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformAdminsMembership(t *testing.T) {
	admins := NewPlatformAdmins([]string{"root-1", " root-2 ", ""})

	assert.True(t, admins.IsAdmin("root-1"))
	assert.True(t, admins.IsAdmin("root-2"), "entries are trimmed")
	assert.False(t, admins.IsAdmin("emp-1"))
	assert.False(t, admins.IsAdmin(""))
}

func TestPlatformAdminsNilAdmitsNobody(t *testing.T) {
	var admins *PlatformAdmins
	assert.False(t, admins.IsAdmin("root-1"))
}

func TestPlatformAdminsEmptyList(t *testing.T) {
	admins := NewPlatformAdmins(nil)
	assert.False(t, admins.IsAdmin("root-1"))
}
