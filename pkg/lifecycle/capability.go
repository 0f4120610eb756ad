package lifecycle

// Resource 权限资源域
type Resource string

const (
	ResourceInvitations  Resource = "invitations"
	ResourceApplications Resource = "applications"
	ResourceMembers      Resource = "members"
	ResourceProjects     Resource = "projects"
)

type Capability string

const (
	CapabilityUpdate       Capability = "update"
	CapabilityNotification Capability = "notification"
	CapabilityView         Capability = "view"
)

// Capabilities 某个操作者在项目内解析出的能力集合。
// 非项目成员的能力集合为 nil，Allows 对 nil 一律返回 false。
type Capabilities map[Resource]map[Capability]struct{}

func (c Capabilities) Allows(resource Resource, capability Capability) bool {
	if c == nil {
		return false
	}
	caps, ok := c[resource]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

func (c Capabilities) Grant(resource Resource, capabilities ...Capability) Capabilities {
	if c == nil {
		c = make(Capabilities)
	}
	caps, ok := c[resource]
	if !ok {
		caps = make(map[Capability]struct{})
		c[resource] = caps
	}
	for _, capability := range capabilities {
		caps[capability] = struct{}{}
	}
	return c
}
