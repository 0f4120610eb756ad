package srv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewhub/crewhub/pkg/lifecycle"
)

func TestRBACInheritance(t *testing.T) {
	rbac := SetupRBACSrv()

	assert.True(t, rbac.CheckPermission(RoleViewer, PermissionProjectsView))
	assert.False(t, rbac.CheckPermission(RoleViewer, PermissionMembersNotification))

	assert.True(t, rbac.CheckPermission(RoleMember, PermissionProjectsView))
	assert.True(t, rbac.CheckPermission(RoleMember, PermissionMembersNotification))
	assert.False(t, rbac.CheckPermission(RoleMember, PermissionInvitationsUpdate))

	assert.True(t, rbac.CheckPermission(RoleAdmin, PermissionInvitationsUpdate))
	assert.True(t, rbac.CheckPermission(RoleAdmin, PermissionApplicationsUpdate))
	assert.True(t, rbac.CheckPermission(RoleAdmin, PermissionMembersNotification))
	assert.False(t, rbac.CheckPermission(RoleAdmin, PermissionProjectsUpdate))

	assert.True(t, rbac.CheckPermission(RoleOwner, PermissionProjectsUpdate))
	assert.True(t, rbac.CheckPermission(RoleOwner, PermissionInvitationsUpdate))
}

func TestRBACResolve(t *testing.T) {
	rbac := SetupRBACSrv()

	admin := rbac.Resolve(RoleAdmin)
	assert.True(t, admin.Allows(lifecycle.ResourceInvitations, lifecycle.CapabilityUpdate))
	assert.True(t, admin.Allows(lifecycle.ResourceApplications, lifecycle.CapabilityUpdate))
	assert.True(t, admin.Allows(lifecycle.ResourceMembers, lifecycle.CapabilityNotification))
	assert.False(t, admin.Allows(lifecycle.ResourceProjects, lifecycle.CapabilityUpdate))

	viewer := rbac.Resolve(RoleViewer)
	assert.True(t, viewer.Allows(lifecycle.ResourceProjects, lifecycle.CapabilityView))
	assert.False(t, viewer.Allows(lifecycle.ResourceInvitations, lifecycle.CapabilityUpdate))

	unknown := rbac.Resolve("role-stranger")
	assert.False(t, unknown.Allows(lifecycle.ResourceProjects, lifecycle.CapabilityView))
}
