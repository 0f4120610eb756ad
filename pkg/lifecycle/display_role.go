package lifecycle

import "strings"

// ResolveDisplayRole 解析成员的展示角色。
// 优先级：关联职位标题 > 用户公开角色 > 权限角色名。
func ResolveDisplayRole(positionTitle, publicRole, roleName string) string {
	if title := strings.TrimSpace(positionTitle); title != "" {
		return title
	}
	if role := strings.TrimSpace(publicRole); role != "" {
		return role
	}
	return strings.TrimSpace(roleName)
}
