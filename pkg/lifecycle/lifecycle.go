// Package lifecycle 实现项目请求（邀请/申请）的纯状态机。
// Decide 只做决策，不做任何 I/O：给定请求当前快照与操作输入，
// 返回新的状态字段与需要执行的副作用命令，由上层负责落库与通知。
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/crewhub/crewhub/pkg/types"
)

type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
	ActionResend Action = "resend"
	ActionReset  Action = "reset"
)

var (
	ErrUnauthorized        = errors.New("actor is not authorized for this action")
	ErrInvalidAction       = errors.New("action is not valid for this request")
	ErrInvalidState        = errors.New("request status does not allow this action")
	ErrResendLimitExceeded = errors.New("invite resend limit exceeded")
	ErrRoleResolution      = errors.New("unable to resolve member role for accept")
)

// CooldownActiveError 冷却期未过，ResumeAt 为恢复操作的时间戳
type CooldownActiveError struct {
	ResumeAt int64
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active until %d", e.ResumeAt)
}

// Input 一次操作的完整决策输入，字段由调用方预先解析好
type Input struct {
	Actor        string
	Action       Action
	Now          int64
	Capabilities Capabilities
	// RejectionCount 同 (project, user, application) 此前已被拒绝的次数，仅 reject 申请时使用
	RejectionCount int
	// RoleID / DisplayRole 仅 accept 时使用，由调用方按优先级解析
	RoleID      string
	DisplayRole string
}

// Decision 决策结果。Status/ResendCount/NextAllowedAt 为请求的新字段值，
// Commands 为需要在同一事务（或其后）执行的副作用。
type Decision struct {
	Status        types.RequestStatus
	ResendCount   int
	NextAllowedAt int64
	Commands      []Command
}

type Command interface {
	isCommand()
}

// CreateMemberCommand 接受请求后创建项目成员
type CreateMemberCommand struct {
	ProjectID   string
	UserID      string
	RoleID      string
	DisplayRole string
	InvitedBy   string
}

// MarkRequestNotificationsCommand 将该请求关联的待处理通知置为最终状态
type MarkRequestNotificationsCommand struct {
	Status types.NotificationStatus
}

// CancelRequestNotificationsCommand 撤销该请求产生的所有待处理通知
type CancelRequestNotificationsCommand struct{}

// SendNotificationCommand 发送一条新通知
type SendNotificationCommand struct {
	RecipientID string
	SenderID    string
	Kind        types.NotificationKind
	ReferenceID string
	Status      types.NotificationStatus
}

// FanoutMemberAddedCommand 向有成员通知权限的既有成员广播新成员加入，
// 新成员与邀请人不在广播范围内
type FanoutMemberAddedCommand struct {
	ProjectID   string
	NewMemberID string
	InvitedBy   string
}

func (CreateMemberCommand) isCommand()               {}
func (MarkRequestNotificationsCommand) isCommand()   {}
func (CancelRequestNotificationsCommand) isCommand() {}
func (SendNotificationCommand) isCommand()           {}
func (FanoutMemberAddedCommand) isCommand()          {}

// Authorize 校验操作者是否有权对请求执行该操作。
// 邀请的 accept/reject 只能由被邀请人本人执行，cancel/resend 需要邀请管理权限；
// 申请的 accept/reject 需要申请管理权限，cancel 允许申请人本人或管理员；
// reset 需要对应方向的管理权限。
func Authorize(req *types.ProjectRequest, actor string, action Action, caps Capabilities) error {
	if action == ActionReset {
		resource := ResourceApplications
		if req.Direction == types.REQUEST_DIRECTION_INVITE {
			resource = ResourceInvitations
		}
		if !caps.Allows(resource, CapabilityUpdate) {
			return ErrUnauthorized
		}
		return nil
	}

	switch req.Direction {
	case types.REQUEST_DIRECTION_INVITE:
		switch action {
		case ActionAccept, ActionReject:
			if actor != req.UserID {
				return ErrUnauthorized
			}
		case ActionCancel, ActionResend:
			if !caps.Allows(ResourceInvitations, CapabilityUpdate) {
				return ErrUnauthorized
			}
		default:
			return ErrInvalidAction
		}
	case types.REQUEST_DIRECTION_APPLICATION:
		switch action {
		case ActionAccept, ActionReject:
			if !caps.Allows(ResourceApplications, CapabilityUpdate) {
				return ErrUnauthorized
			}
		case ActionCancel:
			if actor != req.UserID && !caps.Allows(ResourceApplications, CapabilityUpdate) {
				return ErrUnauthorized
			}
		case ActionResend:
			return ErrInvalidAction
		default:
			return ErrInvalidAction
		}
	default:
		return ErrInvalidAction
	}
	return nil
}

// Decide 对请求执行一次状态机决策。
// 除 reset 外所有操作仅允许作用于 pending 状态的请求。
func Decide(req *types.ProjectRequest, in Input) (*Decision, error) {
	switch in.Action {
	case ActionAccept, ActionReject, ActionCancel, ActionResend, ActionReset:
	default:
		return nil, ErrInvalidAction
	}

	if err := Authorize(req, in.Actor, in.Action, in.Capabilities); err != nil {
		return nil, err
	}

	if in.Action != ActionReset && req.Status != types.REQUEST_STATUS_PENDING {
		return nil, ErrInvalidState
	}

	switch in.Action {
	case ActionAccept:
		return decideAccept(req, in)
	case ActionReject:
		return decideReject(req, in)
	case ActionCancel:
		// 取消清零重发计数，避免取消后重新邀请绕过重发冷却
		return &Decision{
			Status:        types.REQUEST_STATUS_CANCELLED,
			ResendCount:   0,
			NextAllowedAt: in.Now + int64(CancelWindow(req.Direction).Seconds()),
			Commands:      []Command{CancelRequestNotificationsCommand{}},
		}, nil
	case ActionResend:
		return decideResend(req, in)
	case ActionReset:
		return &Decision{
			Status:        types.REQUEST_STATUS_PENDING,
			ResendCount:   req.ResendCount,
			NextAllowedAt: req.NextAllowedAt,
		}, nil
	}
	return nil, ErrInvalidAction
}

func decideAccept(req *types.ProjectRequest, in Input) (*Decision, error) {
	if in.RoleID == "" {
		return nil, ErrRoleResolution
	}

	invitedBy := req.CreatedBy
	accepted := SendNotificationCommand{
		RecipientID: req.CreatedBy,
		SenderID:    req.UserID,
		Kind:        types.NOTIFICATION_KIND_PROJECT_INVITE_ACCEPTED,
		ReferenceID: req.ProjectID,
		Status:      types.NOTIFICATION_STATUS_INFO,
	}
	if req.Direction == types.REQUEST_DIRECTION_APPLICATION {
		invitedBy = req.UserID
		accepted = SendNotificationCommand{
			RecipientID: req.UserID,
			SenderID:    in.Actor,
			Kind:        types.NOTIFICATION_KIND_USER_REQUEST_ACCEPTED,
			ReferenceID: req.ProjectID,
			Status:      types.NOTIFICATION_STATUS_INFO,
		}
	}

	commands := []Command{
		MarkRequestNotificationsCommand{Status: types.NOTIFICATION_STATUS_ACCEPTED},
		CreateMemberCommand{
			ProjectID:   req.ProjectID,
			UserID:      req.UserID,
			RoleID:      in.RoleID,
			DisplayRole: in.DisplayRole,
			InvitedBy:   invitedBy,
		},
		accepted,
	}
	// 仅邀请方向广播成员加入，申请通过只通知申请人
	if req.Direction == types.REQUEST_DIRECTION_INVITE {
		commands = append(commands, FanoutMemberAddedCommand{
			ProjectID:   req.ProjectID,
			NewMemberID: req.UserID,
			InvitedBy:   req.CreatedBy,
		})
	}

	return &Decision{
		Status:        types.REQUEST_STATUS_ACCEPTED,
		ResendCount:   0,
		NextAllowedAt: 0,
		Commands:      commands,
	}, nil
}

func decideReject(req *types.ProjectRequest, in Input) (*Decision, error) {
	rejected := SendNotificationCommand{
		RecipientID: req.CreatedBy,
		SenderID:    req.UserID,
		Kind:        types.NOTIFICATION_KIND_PROJECT_INVITE_REJECTED,
		ReferenceID: req.ProjectID,
		Status:      types.NOTIFICATION_STATUS_INFO,
	}
	if req.Direction == types.REQUEST_DIRECTION_APPLICATION {
		rejected = SendNotificationCommand{
			RecipientID: req.UserID,
			SenderID:    in.Actor,
			Kind:        types.NOTIFICATION_KIND_USER_REQUEST_REJECTED,
			ReferenceID: req.ProjectID,
			Status:      types.NOTIFICATION_STATUS_INFO,
		}
	}

	window := RejectionWindow(req.Direction, in.RejectionCount+1)
	return &Decision{
		Status:        types.REQUEST_STATUS_REJECTED,
		ResendCount:   0,
		NextAllowedAt: in.Now + int64(window.Seconds()),
		Commands: []Command{
			MarkRequestNotificationsCommand{Status: types.NOTIFICATION_STATUS_DECLINED},
			rejected,
		},
	}, nil
}

func decideResend(req *types.ProjectRequest, in Input) (*Decision, error) {
	if req.ResendCount >= ResendLimit {
		return nil, ErrResendLimitExceeded
	}
	if req.NextAllowedAt > 0 && in.Now < req.NextAllowedAt {
		return nil, &CooldownActiveError{ResumeAt: req.NextAllowedAt}
	}

	return &Decision{
		Status:        types.REQUEST_STATUS_PENDING,
		ResendCount:   req.ResendCount + 1,
		NextAllowedAt: in.Now + int64(ResendWindow(req.ResendCount).Seconds()),
		Commands: []Command{
			SendNotificationCommand{
				RecipientID: req.UserID,
				SenderID:    req.CreatedBy,
				Kind:        types.NOTIFICATION_KIND_PROJECT_INVITE,
				ReferenceID: req.ID,
				Status:      types.NOTIFICATION_STATUS_PENDING,
			},
		},
	}, nil
}
