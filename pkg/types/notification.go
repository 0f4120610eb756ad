package types

import sq "github.com/Masterminds/squirrel"

// NotificationKind 通知类型，封闭枚举
type NotificationKind string

const (
	NOTIFICATION_KIND_PROJECT_INVITE          NotificationKind = "project_invite"
	NOTIFICATION_KIND_PROJECT_INVITE_ACCEPTED NotificationKind = "project_invite_accepted"
	NOTIFICATION_KIND_PROJECT_INVITE_REJECTED NotificationKind = "project_invite_rejected"
	NOTIFICATION_KIND_PROJECT_MEMBER_ADDED    NotificationKind = "project_member_added"
	NOTIFICATION_KIND_PROJECT_REQUEST         NotificationKind = "project_request"
	NOTIFICATION_KIND_USER_REQUEST_ACCEPTED   NotificationKind = "user_request_accepted"
	NOTIFICATION_KIND_USER_REQUEST_REJECTED   NotificationKind = "user_request_rejected"
)

type NotificationStatus string

const (
	NOTIFICATION_STATUS_PENDING   NotificationStatus = "pending"
	NOTIFICATION_STATUS_INFO      NotificationStatus = "info"
	NOTIFICATION_STATUS_ACCEPTED  NotificationStatus = "accepted"
	NOTIFICATION_STATUS_DECLINED  NotificationStatus = "declined"
	NOTIFICATION_STATUS_CANCELLED NotificationStatus = "cancelled"
)

type Notification struct {
	ID          string             `json:"id" db:"id"`                     // 主键ID
	RecipientID string             `json:"recipient_id" db:"recipient_id"` // 接收人ID
	SenderID    string             `json:"sender_id" db:"sender_id"`       // 发送人ID
	Kind        NotificationKind   `json:"kind" db:"kind"`
	ReferenceID string             `json:"reference_id" db:"reference_id"` // 关联实体ID，待处理通知指向请求，信息类通知指向项目
	Status      NotificationStatus `json:"status" db:"status"`
	CreatedAt   int64              `json:"created_at" db:"created_at"`
	UpdatedAt   int64              `json:"updated_at" db:"updated_at"`
}

type ListNotificationOptions struct {
	RecipientID string
	SenderID    string
	Kind        NotificationKind
	ReferenceID string
	Status      NotificationStatus
}

func (opts ListNotificationOptions) Apply(query *sq.SelectBuilder) {
	if opts.RecipientID != "" {
		*query = query.Where(sq.Eq{"recipient_id": opts.RecipientID})
	}
	if opts.SenderID != "" {
		*query = query.Where(sq.Eq{"sender_id": opts.SenderID})
	}
	if opts.Kind != "" {
		*query = query.Where(sq.Eq{"kind": opts.Kind})
	}
	if opts.ReferenceID != "" {
		*query = query.Where(sq.Eq{"reference_id": opts.ReferenceID})
	}
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
}
