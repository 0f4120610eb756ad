package types

import sq "github.com/Masterminds/squirrel"

type TeamMember struct {
	ID        int64  `json:"id" db:"id"`                 // 自增主键
	ProjectID string `json:"project_id" db:"project_id"` // 项目ID
	UserID    string `json:"user_id" db:"user_id"`       // 用户ID
	RoleID    string `json:"role_id" db:"role_id"`       // 权限角色ID
	// DisplayRole 对外展示的角色名，与权限角色相互独立
	DisplayRole string `json:"display_role" db:"display_role"`
	InvitedBy   string `json:"invited_by" db:"invited_by"` // 邀请人ID，申请加入时为申请人自己
	InvitedAt   int64  `json:"invited_at" db:"invited_at"`
	JoinedDate  int64  `json:"joined_date" db:"joined_date"`
	IsActive    bool   `json:"is_active" db:"is_active"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
}

type ListTeamMemberOptions struct {
	ProjectID string
	UserID    string
	RoleID    string
	IsActive  *bool
}

func (opts ListTeamMemberOptions) Apply(query *sq.SelectBuilder) {
	if opts.ProjectID != "" {
		*query = query.Where(sq.Eq{"project_id": opts.ProjectID})
	}
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.RoleID != "" {
		*query = query.Where(sq.Eq{"role_id": opts.RoleID})
	}
	if opts.IsActive != nil {
		*query = query.Where(sq.Eq{"is_active": *opts.IsActive})
	}
}
