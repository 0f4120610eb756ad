package types

import sq "github.com/Masterminds/squirrel"

// RequestDirection 请求方向：项目邀请用户 or 用户申请加入项目
type RequestDirection string

const (
	REQUEST_DIRECTION_INVITE      RequestDirection = "invite"
	REQUEST_DIRECTION_APPLICATION RequestDirection = "application"
)

type RequestStatus string

const (
	REQUEST_STATUS_PENDING   RequestStatus = "pending"
	REQUEST_STATUS_ACCEPTING RequestStatus = "accepting" // accept 两阶段写入的中间态
	REQUEST_STATUS_ACCEPTED  RequestStatus = "accepted"
	REQUEST_STATUS_REJECTED  RequestStatus = "rejected"
	REQUEST_STATUS_CANCELLED RequestStatus = "cancelled"
)

// IsTerminal reports whether no further transition except reset applies.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case REQUEST_STATUS_ACCEPTED, REQUEST_STATUS_REJECTED, REQUEST_STATUS_CANCELLED:
		return true
	}
	return false
}

type ProjectRequest struct {
	ID         string           `json:"id" db:"id"`                   // 主键ID
	ProjectID  string           `json:"project_id" db:"project_id"`   // 项目ID
	UserID     string           `json:"user_id" db:"user_id"`         // 被邀请人/申请人ID
	CreatedBy  string           `json:"created_by" db:"created_by"`   // 发起人ID（申请时与 user_id 相同）
	Direction  RequestDirection `json:"direction" db:"direction"`     // 创建后不可变更
	Status     RequestStatus    `json:"status" db:"status"`           // 请求状态
	RoleID     string           `json:"role_id" db:"role_id"`         // 接受后分配的角色，空则使用项目默认角色
	PositionID string           `json:"position_id" db:"position_id"` // 关联的开放职位，用于展示角色解析
	// ResendCount 仅对 direction=invite 有意义
	ResendCount int `json:"resend_count" db:"resend_count"`
	// NextAllowedAt 冷却期截止时间戳，0 表示无冷却
	NextAllowedAt int64 `json:"next_allowed_at" db:"next_allowed_at"`
	CreatedAt     int64 `json:"created_at" db:"created_at"`
	UpdatedAt     int64 `json:"updated_at" db:"updated_at"`
}

type ListProjectRequestOptions struct {
	ProjectID string
	UserID    string
	Direction RequestDirection
	Status    RequestStatus
}

func (opts ListProjectRequestOptions) Apply(query *sq.SelectBuilder) {
	if opts.ProjectID != "" {
		*query = query.Where(sq.Eq{"project_id": opts.ProjectID})
	}
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.Direction != "" {
		*query = query.Where(sq.Eq{"direction": opts.Direction})
	}
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
}
