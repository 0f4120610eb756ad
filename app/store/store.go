package store

import (
	"context"

	"github.com/crewhub/crewhub/pkg/sqlstore"
	"github.com/crewhub/crewhub/pkg/types"
)

type UserStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUserProfile(ctx context.Context, id, userName, email, avatar, publicRole string) error
	UpdateUserPassword(ctx context.Context, id, salt, password string) error
	Delete(ctx context.Context, id string) error
	ListUsers(ctx context.Context, opts types.ListUserOptions, page, pageSize uint64) ([]types.User, error)
	Total(ctx context.Context, opts types.ListUserOptions) (int64, error)
}

type AccessTokenStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.AccessToken) error
	GetAccessToken(ctx context.Context, token string) (*types.AccessToken, error)
	Delete(ctx context.Context, userID string, id int64) error
	ClearUserTokens(ctx context.Context, userID string) error
	ListAccessTokens(ctx context.Context, userID string, page, pageSize uint64) ([]types.AccessToken, error)
}

type ProjectStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Project) error
	GetProject(ctx context.Context, projectID string) (*types.Project, error)
	Update(ctx context.Context, projectID, title, description string) error
	UpdateDefaultRole(ctx context.Context, projectID, roleID string) error
	Delete(ctx context.Context, projectID string) error
	List(ctx context.Context, projectIDs []string, page, pageSize uint64) ([]types.Project, error)
}

type ProjectRoleStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ProjectRole) error
	GetRole(ctx context.Context, projectID, roleID string) (*types.ProjectRole, error)
	ListRoles(ctx context.Context, projectID string) ([]types.ProjectRole, error)
	Delete(ctx context.Context, projectID, roleID string) error
}

type PositionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Position) error
	GetPosition(ctx context.Context, projectID, positionID string) (*types.Position, error)
	UpdateStatus(ctx context.Context, projectID, positionID string, status types.PositionStatus) error
	ListPositions(ctx context.Context, projectID string, status types.PositionStatus) ([]types.Position, error)
	Delete(ctx context.Context, projectID, positionID string) error
}

type TeamMemberStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.TeamMember) error
	GetMember(ctx context.Context, projectID, userID string) (*types.TeamMember, error)
	UpdateRole(ctx context.Context, projectID, userID, roleID string) error
	UpdateDisplayRole(ctx context.Context, projectID, userID, displayRole string) error
	Deactivate(ctx context.Context, projectID, userID string) error
	Delete(ctx context.Context, projectID, userID string) error
	List(ctx context.Context, opts types.ListTeamMemberOptions, page, pageSize uint64) ([]types.TeamMember, error)
	Total(ctx context.Context, opts types.ListTeamMemberOptions) (int64, error)
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
}

// ProjectRequestStore 定义邀请/申请请求的存储接口。
// 状态变更一律通过 UpdateStatusCAS 带条件更新，保证并发下的单次生效。
type ProjectRequestStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.ProjectRequest) error
	GetByID(ctx context.Context, id string) (*types.ProjectRequest, error)
	// GetPending 获取 (project, user, direction) 当前处于 pending 的请求
	GetPending(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error)
	// GetLatest 获取 (project, user, direction) 最近一次请求，用于冷却检查
	GetLatest(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error)
	// UpdateStatusCAS 仅当请求当前状态为 fromStatus 时更新，返回是否更新成功
	UpdateStatusCAS(ctx context.Context, id string, fromStatus, toStatus types.RequestStatus) (bool, error)
	// UpdateDecision 持久化一次状态机决策的全部字段变更
	UpdateDecision(ctx context.Context, id string, status types.RequestStatus, resendCount int, nextAllowedAt int64) error
	UpdateResendState(ctx context.Context, id string, resendCount int, nextAllowedAt int64) error
	// CountRejections 统计 (project, user, direction) 历史被拒次数
	CountRejections(ctx context.Context, projectID, userID string, direction types.RequestDirection) (int64, error)
	// ListStuckAccepting 列出停留在 accepting 中间态超过 deadline 的请求
	ListStuckAccepting(ctx context.Context, deadline int64, page, pageSize uint64) ([]types.ProjectRequest, error)
	List(ctx context.Context, opts types.ListProjectRequestOptions, page, pageSize uint64) ([]types.ProjectRequest, error)
	Total(ctx context.Context, opts types.ListProjectRequestOptions) (int64, error)
}

type NotificationStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Notification) error
	GetNotification(ctx context.Context, id string) (*types.Notification, error)
	// UpdateStatusByRef 将某实体关联的指定类型通知批量置为新状态
	UpdateStatusByRef(ctx context.Context, referenceID string, kinds []types.NotificationKind, fromStatus, toStatus types.NotificationStatus) error
	// CancelPendingBySender 撤销某发送人在某实体下的全部待处理通知
	CancelPendingBySender(ctx context.Context, referenceID, senderID string) error
	List(ctx context.Context, opts types.ListNotificationOptions, page, pageSize uint64) ([]types.Notification, error)
	Total(ctx context.Context, opts types.ListNotificationOptions) (int64, error)
	Delete(ctx context.Context, id string) error
}
