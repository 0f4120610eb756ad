package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/crewhub/crewhub/app/core"
	"github.com/crewhub/crewhub/app/core/srv"
	"github.com/crewhub/crewhub/app/store"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/lifecycle"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

// requestNotificationKinds 与请求绑定的待处理通知类型
var requestNotificationKinds = []types.NotificationKind{
	types.NOTIFICATION_KIND_PROJECT_INVITE,
	types.NOTIFICATION_KIND_PROJECT_REQUEST,
}

type ProjectRequestLogic struct {
	UserInfo
	ctx    context.Context
	core   *core.Core
	engine *requestEngine
}

func NewProjectRequestLogic(ctx context.Context, core *core.Core) *ProjectRequestLogic {
	return &ProjectRequestLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
		engine:   newRequestEngine(core),
	}
}

func (l *ProjectRequestLogic) CreateInvite(projectID, userID, roleID, positionID string) (*types.ProjectRequest, error) {
	return l.engine.createInvite(l.ctx, l.GetUserInfo().User, projectID, userID, roleID, positionID)
}

func (l *ProjectRequestLogic) Apply(projectID, positionID string) (*types.ProjectRequest, error) {
	return l.engine.apply(l.ctx, l.GetUserInfo().User, projectID, positionID)
}

// ManageRequest 对请求执行 accept/reject/cancel/resend/reset 操作
func (l *ProjectRequestLogic) ManageRequest(projectID, requestID, action string) (*types.ProjectRequest, error) {
	return l.engine.manage(l.ctx, l.GetUserInfo().User, projectID, requestID, lifecycle.Action(action))
}

// ListProjectRequests 项目侧列表，需要对应方向的管理权限
func (l *ProjectRequestLogic) ListProjectRequests(projectID string, direction types.RequestDirection, status types.RequestStatus, page, pageSize uint64) ([]types.ProjectRequest, int64, error) {
	caps, err := l.engine.capabilities(l.ctx, projectID, l.GetUserInfo().User)
	if err != nil {
		return nil, 0, err
	}

	resource := lifecycle.ResourceApplications
	if direction == types.REQUEST_DIRECTION_INVITE {
		resource = lifecycle.ResourceInvitations
	}
	if !caps.Allows(resource, lifecycle.CapabilityUpdate) {
		return nil, 0, errors.New("ProjectRequestLogic.ListProjectRequests.permission", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
	}

	opts := types.ListProjectRequestOptions{
		ProjectID: projectID,
		Direction: direction,
		Status:    status,
	}
	list, err := l.engine.requests.List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("ProjectRequestLogic.ListProjectRequests.List", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.engine.requests.Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("ProjectRequestLogic.ListProjectRequests.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// ListMyRequests 用户侧列表，只能看自己的请求
func (l *ProjectRequestLogic) ListMyRequests(direction types.RequestDirection, status types.RequestStatus, page, pageSize uint64) ([]types.ProjectRequest, int64, error) {
	opts := types.ListProjectRequestOptions{
		UserID:    l.GetUserInfo().User,
		Direction: direction,
		Status:    status,
	}
	list, err := l.engine.requests.List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("ProjectRequestLogic.ListMyRequests.List", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.engine.requests.Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("ProjectRequestLogic.ListMyRequests.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// requestEngine 把纯状态机的决策落到存储与通知上。
// 依赖存储接口而不是具体实现，便于在测试中替换。
type requestEngine struct {
	requests      store.ProjectRequestStore
	members       store.TeamMemberStore
	notifications store.NotificationStore
	projects      store.ProjectStore
	roles         store.ProjectRoleStore
	positions     store.PositionStore
	users         store.UserStore
	rbac          *srv.RBACSrv
	transaction   func(ctx context.Context, fn func(ctx context.Context) error) error
	transitionInc func(direction, action, result string)
	reconcileInc  func(result string)
	now           func() int64
}

func newRequestEngine(core *core.Core) *requestEngine {
	return &requestEngine{
		requests:      core.Store().ProjectRequestStore(),
		members:       core.Store().TeamMemberStore(),
		notifications: core.Store().NotificationStore(),
		projects:      core.Store().ProjectStore(),
		roles:         core.Store().ProjectRoleStore(),
		positions:     core.Store().PositionStore(),
		users:         core.Store().UserStore(),
		rbac:          core.Srv().RBAC(),
		transaction:   core.Store().Transaction,
		transitionInc: core.Metrics().TransitionInc,
		reconcileInc:  core.Metrics().ReconcileInc,
		now:           func() int64 { return time.Now().Unix() },
	}
}

// capabilities 解析操作者在项目内的能力集合，非成员返回 nil
func (e *requestEngine) capabilities(ctx context.Context, projectID, userID string) (lifecycle.Capabilities, error) {
	member, err := e.members.GetMember(ctx, projectID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.New("requestEngine.capabilities.GetMember", i18n.ERROR_INTERNAL, err)
	}
	if !member.IsActive {
		return nil, nil
	}

	role, err := e.roles.GetRole(ctx, projectID, member.RoleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.New("requestEngine.capabilities.GetRole", i18n.ERROR_INTERNAL, err)
	}

	return e.rbac.Resolve(role.Preset), nil
}

func (e *requestEngine) createInvite(ctx context.Context, actor, projectID, userID, roleID, positionID string) (*types.ProjectRequest, error) {
	caps, err := e.capabilities(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}
	if !caps.Allows(lifecycle.ResourceInvitations, lifecycle.CapabilityUpdate) {
		return nil, errors.New("requestEngine.createInvite.permission", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden)
	}

	if _, err = e.users.GetUser(ctx, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("requestEngine.createInvite.user", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
		}
		return nil, errors.New("requestEngine.createInvite.GetUser", i18n.ERROR_INTERNAL, err)
	}

	if err = e.checkCanCreate(ctx, projectID, userID, types.REQUEST_DIRECTION_INVITE); err != nil {
		return nil, err
	}

	req := &types.ProjectRequest{
		ID:         utils.GenRandomID(),
		ProjectID:  projectID,
		UserID:     userID,
		CreatedBy:  actor,
		Direction:  types.REQUEST_DIRECTION_INVITE,
		Status:     types.REQUEST_STATUS_PENDING,
		RoleID:     roleID,
		PositionID: positionID,
		CreatedAt:  e.now(),
		UpdatedAt:  e.now(),
	}
	if err = e.requests.Create(ctx, req); err != nil {
		return nil, errors.New("requestEngine.createInvite.Create", i18n.ERROR_INTERNAL, err)
	}

	e.sendNotification(ctx, types.Notification{
		ID:          utils.GenRandomID(),
		RecipientID: userID,
		SenderID:    actor,
		Kind:        types.NOTIFICATION_KIND_PROJECT_INVITE,
		ReferenceID: req.ID,
		Status:      types.NOTIFICATION_STATUS_PENDING,
	})

	e.metric(req.Direction, "create", "ok")
	return req, nil
}

func (e *requestEngine) apply(ctx context.Context, actor, projectID, positionID string) (*types.ProjectRequest, error) {
	if _, err := e.projects.GetProject(ctx, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("requestEngine.apply.project", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
		}
		return nil, errors.New("requestEngine.apply.GetProject", i18n.ERROR_INTERNAL, err)
	}

	if err := e.checkCanCreate(ctx, projectID, actor, types.REQUEST_DIRECTION_APPLICATION); err != nil {
		return nil, err
	}

	req := &types.ProjectRequest{
		ID:         utils.GenRandomID(),
		ProjectID:  projectID,
		UserID:     actor,
		CreatedBy:  actor,
		Direction:  types.REQUEST_DIRECTION_APPLICATION,
		Status:     types.REQUEST_STATUS_PENDING,
		PositionID: positionID,
		CreatedAt:  e.now(),
		UpdatedAt:  e.now(),
	}
	if err := e.requests.Create(ctx, req); err != nil {
		return nil, errors.New("requestEngine.apply.Create", i18n.ERROR_INTERNAL, err)
	}

	// 向有申请处理权限的成员广播待处理通知
	e.notifyCapableMembers(ctx, projectID, []string{actor}, lifecycle.ResourceApplications, lifecycle.CapabilityUpdate, types.Notification{
		SenderID:    actor,
		Kind:        types.NOTIFICATION_KIND_PROJECT_REQUEST,
		ReferenceID: req.ID,
		Status:      types.NOTIFICATION_STATUS_PENDING,
	})

	e.metric(req.Direction, "create", "ok")
	return req, nil
}

// checkCanCreate 同方向不允许并存的待处理请求，且冷却期内禁止重建
func (e *requestEngine) checkCanCreate(ctx context.Context, projectID, userID string, direction types.RequestDirection) error {
	member, err := e.members.GetMember(ctx, projectID, userID)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("requestEngine.checkCanCreate.GetMember", i18n.ERROR_INTERNAL, err)
	}
	if member != nil && member.IsActive {
		return errors.New("requestEngine.checkCanCreate.member", i18n.ERROR_ALREADY_MEMBER, nil).Code(http.StatusBadRequest)
	}

	pending, err := e.requests.GetPending(ctx, projectID, userID, direction)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("requestEngine.checkCanCreate.GetPending", i18n.ERROR_INTERNAL, err)
	}
	if pending != nil {
		messageKey := i18n.ERROR_ALREADY_APPLIED
		if direction == types.REQUEST_DIRECTION_INVITE {
			messageKey = i18n.ERROR_ALREADY_INVITED
		}
		return errors.New("requestEngine.checkCanCreate.pending", messageKey, nil).Code(http.StatusBadRequest)
	}

	latest, err := e.requests.GetLatest(ctx, projectID, userID, direction)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("requestEngine.checkCanCreate.GetLatest", i18n.ERROR_INTERNAL, err)
	}
	if latest != nil && latest.Status.IsTerminal() && latest.NextAllowedAt > e.now() {
		return errors.New("requestEngine.checkCanCreate.cooldown", i18n.ERROR_REQUEST_COOLDOWN, nil).
			Code(http.StatusTooManyRequests).
			WithData(map[string]interface{}{"ResumeAt": latest.NextAllowedAt})
	}
	return nil
}

func (e *requestEngine) manage(ctx context.Context, actor, projectID, requestID string, action lifecycle.Action) (*types.ProjectRequest, error) {
	var req *types.ProjectRequest
	var err error
	if requestID == "" {
		// 未指定请求时定位发给操作者本人的待处理邀请
		req, err = e.requests.GetPending(ctx, projectID, actor, types.REQUEST_DIRECTION_INVITE)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, errors.New("requestEngine.manage.GetPending", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
			}
			return nil, errors.New("requestEngine.manage.GetPending", i18n.ERROR_INTERNAL, err)
		}
	} else {
		req, err = e.requests.GetByID(ctx, requestID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, errors.New("requestEngine.manage.GetByID", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
			}
			return nil, errors.New("requestEngine.manage.GetByID", i18n.ERROR_INTERNAL, err)
		}
	}
	if req.ProjectID != projectID {
		return nil, errors.New("requestEngine.manage.project_mismatch", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	caps, err := e.capabilities(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}

	in := lifecycle.Input{
		Actor:        actor,
		Action:       action,
		Now:          e.now(),
		Capabilities: caps,
	}

	if action == lifecycle.ActionReject && req.Direction == types.REQUEST_DIRECTION_APPLICATION {
		count, err := e.requests.CountRejections(ctx, projectID, req.UserID, req.Direction)
		if err != nil {
			return nil, errors.New("requestEngine.manage.CountRejections", i18n.ERROR_INTERNAL, err)
		}
		in.RejectionCount = int(count)
	}

	if action == lifecycle.ActionAccept {
		if err = e.resolveAcceptInput(ctx, req, &in); err != nil {
			e.metric(req.Direction, string(action), "error")
			return nil, err
		}
	}

	decision, err := lifecycle.Decide(req, in)
	if err != nil {
		e.metric(req.Direction, string(action), "rejected")
		return nil, mapLifecycleError("requestEngine.manage.Decide", err)
	}

	if err = e.execute(ctx, req, in, decision); err != nil {
		e.metric(req.Direction, string(action), "error")
		return nil, err
	}

	req.Status = decision.Status
	req.ResendCount = decision.ResendCount
	req.NextAllowedAt = decision.NextAllowedAt
	e.metric(req.Direction, string(action), "ok")
	return req, nil
}

// resolveAcceptInput 补全 accept 决策需要的角色与展示角色
func (e *requestEngine) resolveAcceptInput(ctx context.Context, req *types.ProjectRequest, in *lifecycle.Input) error {
	roleID := req.RoleID
	if roleID == "" {
		project, err := e.projects.GetProject(ctx, req.ProjectID)
		if err != nil {
			return errors.New("requestEngine.resolveAcceptInput.GetProject", i18n.ERROR_INTERNAL, err)
		}
		roleID = project.DefaultRoleID
	}
	if roleID == "" {
		return errors.New("requestEngine.resolveAcceptInput.role", i18n.ERROR_REQUEST_ROLE_MISSING, nil).Code(http.StatusUnprocessableEntity)
	}

	role, err := e.roles.GetRole(ctx, req.ProjectID, roleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.New("requestEngine.resolveAcceptInput.GetRole", i18n.ERROR_REQUEST_ROLE_MISSING, nil).Code(http.StatusUnprocessableEntity)
		}
		return errors.New("requestEngine.resolveAcceptInput.GetRole", i18n.ERROR_INTERNAL, err)
	}

	var positionTitle string
	if req.PositionID != "" {
		position, err := e.positions.GetPosition(ctx, req.ProjectID, req.PositionID)
		if err != nil && err != sql.ErrNoRows {
			return errors.New("requestEngine.resolveAcceptInput.GetPosition", i18n.ERROR_INTERNAL, err)
		}
		if position != nil {
			positionTitle = position.Title
		}
	}

	user, err := e.users.GetUser(ctx, req.UserID)
	if err != nil {
		return errors.New("requestEngine.resolveAcceptInput.GetUser", i18n.ERROR_INTERNAL, err)
	}

	in.RoleID = roleID
	in.DisplayRole = lifecycle.ResolveDisplayRole(positionTitle, user.PublicRole, role.Name)
	return nil
}

// execute 执行决策。accept 走两阶段写入，其余操作以 pending 为前置条件做条件更新。
func (e *requestEngine) execute(ctx context.Context, req *types.ProjectRequest, in lifecycle.Input, decision *lifecycle.Decision) error {
	switch {
	case in.Action == lifecycle.ActionAccept:
		return e.executeAccept(ctx, req, decision)
	case in.Action == lifecycle.ActionResend:
		if err := e.requests.UpdateResendState(ctx, req.ID, decision.ResendCount, decision.NextAllowedAt); err != nil {
			return errors.New("requestEngine.execute.UpdateResendState", i18n.ERROR_INTERNAL, err)
		}
	case in.Action == lifecycle.ActionReset:
		if err := e.requests.UpdateDecision(ctx, req.ID, decision.Status, decision.ResendCount, decision.NextAllowedAt); err != nil {
			return errors.New("requestEngine.execute.UpdateDecision", i18n.ERROR_INTERNAL, err)
		}
	default:
		ok, err := e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_PENDING, decision.Status)
		if err != nil {
			return errors.New("requestEngine.execute.UpdateStatusCAS", i18n.ERROR_INTERNAL, err)
		}
		if !ok {
			return errors.New("requestEngine.execute.conflict", i18n.ERROR_REQUEST_CONFLICT, nil).Code(http.StatusConflict)
		}
		if err = e.requests.UpdateResendState(ctx, req.ID, decision.ResendCount, decision.NextAllowedAt); err != nil {
			return errors.New("requestEngine.execute.UpdateResendState", i18n.ERROR_INTERNAL, err)
		}
	}

	e.runNotifyCommands(ctx, req, decision)
	return nil
}

// executeAccept 两阶段接受：先抢占 accepting 中间态，成员写入成功后再落 accepted。
// 中途失败回滚到 pending，残留的 accepting 由后台对账任务兜底。
func (e *requestEngine) executeAccept(ctx context.Context, req *types.ProjectRequest, decision *lifecycle.Decision) error {
	ok, err := e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_PENDING, types.REQUEST_STATUS_ACCEPTING)
	if err != nil {
		return errors.New("requestEngine.executeAccept.UpdateStatusCAS", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		return errors.New("requestEngine.executeAccept.conflict", i18n.ERROR_REQUEST_CONFLICT, nil).Code(http.StatusConflict)
	}

	err = e.transaction(ctx, func(ctx context.Context) error {
		for _, cmd := range decision.Commands {
			member, isMember := cmd.(lifecycle.CreateMemberCommand)
			if !isMember {
				continue
			}
			if err := e.members.Create(ctx, types.TeamMember{
				ProjectID:   member.ProjectID,
				UserID:      member.UserID,
				RoleID:      member.RoleID,
				DisplayRole: member.DisplayRole,
				InvitedBy:   member.InvitedBy,
				InvitedAt:   req.CreatedAt,
				JoinedDate:  e.now(),
				IsActive:    true,
				CreatedAt:   e.now(),
			}); err != nil {
				return errors.New("requestEngine.executeAccept.members.Create", i18n.ERROR_INTERNAL, err)
			}
		}

		ok, err := e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_ACCEPTING, types.REQUEST_STATUS_ACCEPTED)
		if err != nil {
			return errors.New("requestEngine.executeAccept.finalize", i18n.ERROR_INTERNAL, err)
		}
		if !ok {
			return errors.New("requestEngine.executeAccept.finalize.conflict", i18n.ERROR_REQUEST_CONFLICT, nil).Code(http.StatusConflict)
		}
		return e.requests.UpdateResendState(ctx, req.ID, decision.ResendCount, decision.NextAllowedAt)
	})
	if err != nil {
		if _, casErr := e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_ACCEPTING, types.REQUEST_STATUS_PENDING); casErr != nil {
			slog.Error("Failed to roll back accepting request",
				slog.String("request_id", req.ID), slog.Any("error", casErr))
		}
		return err
	}

	e.runNotifyCommands(ctx, req, decision)
	return nil
}

// runNotifyCommands 通知属于尽力而为的副作用，失败只记录日志
func (e *requestEngine) runNotifyCommands(ctx context.Context, req *types.ProjectRequest, decision *lifecycle.Decision) {
	for _, cmd := range decision.Commands {
		switch c := cmd.(type) {
		case lifecycle.MarkRequestNotificationsCommand:
			if err := e.notifications.UpdateStatusByRef(ctx, req.ID, requestNotificationKinds, types.NOTIFICATION_STATUS_PENDING, c.Status); err != nil {
				slog.Error("Failed to mark request notifications",
					slog.String("request_id", req.ID), slog.Any("error", err))
			}
		case lifecycle.CancelRequestNotificationsCommand:
			if err := e.notifications.CancelPendingBySender(ctx, req.ID, req.CreatedBy); err != nil {
				slog.Error("Failed to cancel request notifications",
					slog.String("request_id", req.ID), slog.Any("error", err))
			}
		case lifecycle.SendNotificationCommand:
			e.sendNotification(ctx, types.Notification{
				ID:          utils.GenRandomID(),
				RecipientID: c.RecipientID,
				SenderID:    c.SenderID,
				Kind:        c.Kind,
				ReferenceID: c.ReferenceID,
				Status:      c.Status,
			})
		case lifecycle.FanoutMemberAddedCommand:
			// 新成员与邀请人都不需要这条广播
			e.notifyCapableMembers(ctx, c.ProjectID, []string{c.NewMemberID, c.InvitedBy}, lifecycle.ResourceMembers, lifecycle.CapabilityNotification, types.Notification{
				SenderID:    c.NewMemberID,
				Kind:        types.NOTIFICATION_KIND_PROJECT_MEMBER_ADDED,
				ReferenceID: c.ProjectID,
				Status:      types.NOTIFICATION_STATUS_INFO,
			})
		}
	}
}

func (e *requestEngine) sendNotification(ctx context.Context, notification types.Notification) {
	if notification.ID == "" {
		notification.ID = utils.GenRandomID()
	}
	notification.CreatedAt = e.now()
	notification.UpdatedAt = e.now()
	if err := e.notifications.Create(ctx, notification); err != nil {
		slog.Error("Failed to create notification",
			slog.String("kind", string(notification.Kind)),
			slog.String("recipient", notification.RecipientID),
			slog.Any("error", err))
	}
}

// notifyCapableMembers 向具备某能力的活跃成员广播通知，except 列表内的用户除外
func (e *requestEngine) notifyCapableMembers(ctx context.Context, projectID string, except []string, resource lifecycle.Resource, capability lifecycle.Capability, template types.Notification) {
	isActive := true
	members, err := e.members.List(ctx, types.ListTeamMemberOptions{ProjectID: projectID, IsActive: &isActive}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		slog.Error("Failed to list members for notification fanout",
			slog.String("project_id", projectID), slog.Any("error", err))
		return
	}

	roles, err := e.roles.ListRoles(ctx, projectID)
	if err != nil {
		slog.Error("Failed to list roles for notification fanout",
			slog.String("project_id", projectID), slog.Any("error", err))
		return
	}
	capable := make(map[string]bool, len(roles))
	for _, role := range roles {
		capable[role.ID] = e.rbac.Resolve(role.Preset).Allows(resource, capability)
	}

	for _, member := range members {
		if lo.Contains(except, member.UserID) || !capable[member.RoleID] {
			continue
		}
		notification := template
		notification.ID = utils.GenRandomID()
		notification.RecipientID = member.UserID
		e.sendNotification(ctx, notification)
	}
}

func (e *requestEngine) metric(direction types.RequestDirection, action, result string) {
	if e.transitionInc == nil {
		return
	}
	e.transitionInc(string(direction), action, result)
}

// RequestMaintenance 后台对账入口，不携带用户身份
type RequestMaintenance struct {
	engine *requestEngine
}

func NewRequestMaintenance(core *core.Core) *RequestMaintenance {
	return &RequestMaintenance{engine: newRequestEngine(core)}
}

// SweepAcceptingRequests 对账停留在 accepting 中间态过久的请求。
// 成员已经写入的补记为 accepted，未写入的回滚到 pending。
func (m *RequestMaintenance) SweepAcceptingRequests(ctx context.Context, stuckFor time.Duration) error {
	return m.engine.sweepAccepting(ctx, time.Now().Add(-stuckFor).Unix())
}

const sweepPageSize = 100

func (e *requestEngine) sweepAccepting(ctx context.Context, deadline int64) error {
	for page := uint64(1); ; page++ {
		stuck, err := e.requests.ListStuckAccepting(ctx, deadline, page, sweepPageSize)
		if err != nil {
			return errors.New("requestEngine.sweepAccepting.ListStuckAccepting", i18n.ERROR_INTERNAL, err)
		}

		for _, req := range stuck {
			e.reconcileAccepting(ctx, req)
		}

		if len(stuck) < sweepPageSize {
			return nil
		}
	}
}

func (e *requestEngine) reconcileAccepting(ctx context.Context, req types.ProjectRequest) {
	member, err := e.members.GetMember(ctx, req.ProjectID, req.UserID)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("Failed to check member during accepting reconcile",
			slog.String("request_id", req.ID), slog.Any("error", err))
		e.reconcileMetric("error")
		return
	}

	if member != nil && member.IsActive {
		// 成员已落库说明事务实际成功，补齐终态
		ok, err := e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_ACCEPTING, types.REQUEST_STATUS_ACCEPTED)
		if err != nil || !ok {
			slog.Error("Failed to finalize accepting request",
				slog.String("request_id", req.ID), slog.Any("error", err))
			e.reconcileMetric("error")
			return
		}
		if err = e.requests.UpdateResendState(ctx, req.ID, 0, 0); err != nil {
			slog.Error("Failed to clear resend state on reconciled request",
				slog.String("request_id", req.ID), slog.Any("error", err))
		}
		e.reconcileMetric("finalized")
		return
	}

	if _, err = e.requests.UpdateStatusCAS(ctx, req.ID, types.REQUEST_STATUS_ACCEPTING, types.REQUEST_STATUS_PENDING); err != nil {
		slog.Error("Failed to roll back stuck accepting request",
			slog.String("request_id", req.ID), slog.Any("error", err))
		e.reconcileMetric("error")
		return
	}
	e.reconcileMetric("rolled_back")
}

func (e *requestEngine) reconcileMetric(result string) {
	if e.reconcileInc == nil {
		return
	}
	e.reconcileInc(result)
}

func mapLifecycleError(trace string, err error) error {
	if cooldown, ok := err.(*lifecycle.CooldownActiveError); ok {
		return errors.New(trace, i18n.ERROR_REQUEST_COOLDOWN, err).
			Code(http.StatusTooManyRequests).
			WithData(map[string]interface{}{"ResumeAt": cooldown.ResumeAt})
	}

	switch err {
	case lifecycle.ErrUnauthorized:
		return errors.New(trace, i18n.ERROR_PERMISSION_DENIED, err).Code(http.StatusForbidden)
	case lifecycle.ErrInvalidAction:
		return errors.New(trace, i18n.ERROR_REQUEST_INVALID_ACTION, err).Code(http.StatusBadRequest)
	case lifecycle.ErrInvalidState:
		return errors.New(trace, i18n.ERROR_REQUEST_CONFLICT, err).Code(http.StatusConflict)
	case lifecycle.ErrResendLimitExceeded:
		return errors.New(trace, i18n.ERROR_REQUEST_RESEND_LIMIT, err).Code(http.StatusTooManyRequests)
	case lifecycle.ErrRoleResolution:
		return errors.New(trace, i18n.ERROR_REQUEST_ROLE_MISSING, err).Code(http.StatusUnprocessableEntity)
	default:
		return errors.New(trace, i18n.ERROR_INTERNAL, err)
	}
}
