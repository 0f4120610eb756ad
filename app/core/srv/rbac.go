package srv

import (
	"github.com/mikespook/gorbac/v2"

	"github.com/crewhub/crewhub/pkg/lifecycle"
)

const (
	// 定义角色ID
	RoleOwner  = "role-owner"
	RoleAdmin  = "role-admin"
	RoleMember = "role-member"
	RoleViewer = "role-viewer"

	// 定义权限ID
	PermissionInvitationsUpdate   = "invitations.update"
	PermissionApplicationsUpdate  = "applications.update"
	PermissionMembersUpdate       = "members.update"
	PermissionMembersNotification = "members.notification"
	PermissionProjectsUpdate      = "projects.update"
	PermissionProjectsView        = "projects.view"
)

// capabilityGrants 权限ID到能力域的映射，Resolve 按此表展开角色能力
var capabilityGrants = map[string]struct {
	Resource   lifecycle.Resource
	Capability lifecycle.Capability
}{
	PermissionInvitationsUpdate:   {lifecycle.ResourceInvitations, lifecycle.CapabilityUpdate},
	PermissionApplicationsUpdate:  {lifecycle.ResourceApplications, lifecycle.CapabilityUpdate},
	PermissionMembersUpdate:       {lifecycle.ResourceMembers, lifecycle.CapabilityUpdate},
	PermissionMembersNotification: {lifecycle.ResourceMembers, lifecycle.CapabilityNotification},
	PermissionProjectsUpdate:      {lifecycle.ResourceProjects, lifecycle.CapabilityUpdate},
	PermissionProjectsView:        {lifecycle.ResourceProjects, lifecycle.CapabilityView},
}

func SetupRBACSrv() *RBACSrv {
	rbac := gorbac.New()

	pInvitations := gorbac.NewStdPermission(PermissionInvitationsUpdate)
	pApplications := gorbac.NewStdPermission(PermissionApplicationsUpdate)
	pMembers := gorbac.NewStdPermission(PermissionMembersUpdate)
	pNotification := gorbac.NewStdPermission(PermissionMembersNotification)
	pProjects := gorbac.NewStdPermission(PermissionProjectsUpdate)
	pView := gorbac.NewStdPermission(PermissionProjectsView)

	roleViewer := gorbac.NewStdRole(RoleViewer)
	roleViewer.Assign(pView)

	roleMember := gorbac.NewStdRole(RoleMember)
	roleMember.Assign(pNotification)

	roleAdmin := gorbac.NewStdRole(RoleAdmin)
	roleAdmin.Assign(pInvitations)
	roleAdmin.Assign(pApplications)
	roleAdmin.Assign(pMembers)

	roleOwner := gorbac.NewStdRole(RoleOwner)
	roleOwner.Assign(pProjects)

	rbac.Add(roleViewer)
	rbac.Add(roleMember)
	rbac.Add(roleAdmin)
	rbac.Add(roleOwner)

	// 设置角色继承关系
	rbac.SetParent(RoleMember, RoleViewer)
	rbac.SetParent(RoleAdmin, RoleMember)
	rbac.SetParent(RoleOwner, RoleAdmin)

	return &RBACSrv{
		rbac: rbac,
	}
}

type RBACSrv struct {
	rbac *gorbac.RBAC
}

// CheckPermission 检查角色是否有某权限
func (a *RBACSrv) CheckPermission(roleID, permissionID string) bool {
	return a.rbac.IsGranted(roleID, gorbac.NewStdPermission(permissionID), nil)
}

// Resolve 将预设角色展开为状态机使用的能力集合。
// 未知角色返回 nil，Capabilities.Allows 对 nil 一律拒绝。
func (a *RBACSrv) Resolve(roleID string) lifecycle.Capabilities {
	var caps lifecycle.Capabilities
	for permissionID, grant := range capabilityGrants {
		if a.CheckPermission(roleID, permissionID) {
			caps = caps.Grant(grant.Resource, grant.Capability)
		}
	}
	return caps
}
