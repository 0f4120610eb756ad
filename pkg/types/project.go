package types

type Project struct {
	ID          string `json:"id" db:"id"` // 项目ID
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	// DefaultRoleID 请求未指定角色时，接受后分配的默认角色
	DefaultRoleID string `json:"default_role_id" db:"default_role_id"`
	CreatedBy     string `json:"created_by" db:"created_by"`
	CreatedAt     int64  `json:"created_at" db:"created_at"`
	UpdatedAt     int64  `json:"updated_at" db:"updated_at"`
}

// ProjectRole 项目内的权限角色，preset 关联到 RBAC 预设角色
type ProjectRole struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"project_id" db:"project_id"`
	Name      string `json:"name" db:"name"`     // 角色展示名
	Preset    string `json:"preset" db:"preset"` // RBAC 预设角色ID
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type PositionStatus string

const (
	POSITION_STATUS_OPEN   PositionStatus = "open"
	POSITION_STATUS_CLOSED PositionStatus = "closed"
)

// Position 项目开放职位，展示角色解析的第一优先级来源
type Position struct {
	ID        string         `json:"id" db:"id"`
	ProjectID string         `json:"project_id" db:"project_id"`
	Title     string         `json:"title" db:"title"`
	Status    PositionStatus `json:"status" db:"status"`
	CreatedAt int64          `json:"created_at" db:"created_at"`
}
