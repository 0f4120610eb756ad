package v1

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhub/crewhub/app/core/srv"
	"github.com/crewhub/crewhub/app/store"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/lifecycle"
	"github.com/crewhub/crewhub/pkg/types"
)

const (
	testNow     = int64(1700000000)
	testProject = "p1"
)

// fakes 只实现引擎用到的方法，其余方法走内嵌接口（调用即 panic，测试可及时暴露）

type fakeRequestStore struct {
	store.ProjectRequestStore
	requests   map[string]*types.ProjectRequest
	rejections map[string]int64
}

func rejectionKey(projectID, userID string, direction types.RequestDirection) string {
	return fmt.Sprintf("%s/%s/%s", projectID, userID, direction)
}

func (s *fakeRequestStore) Create(ctx context.Context, data *types.ProjectRequest) error {
	s.requests[data.ID] = data
	return nil
}

func (s *fakeRequestStore) GetByID(ctx context.Context, id string) (*types.ProjectRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (s *fakeRequestStore) GetPending(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error) {
	for _, req := range s.requests {
		if req.ProjectID == projectID && req.UserID == userID && req.Direction == direction &&
			(req.Status == types.REQUEST_STATUS_PENDING || req.Status == types.REQUEST_STATUS_ACCEPTING) {
			copied := *req
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeRequestStore) GetLatest(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error) {
	var latest *types.ProjectRequest
	for _, req := range s.requests {
		if req.ProjectID != projectID || req.UserID != userID || req.Direction != direction {
			continue
		}
		if latest == nil || req.UpdatedAt > latest.UpdatedAt {
			latest = req
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (s *fakeRequestStore) UpdateStatusCAS(ctx context.Context, id string, fromStatus, toStatus types.RequestStatus) (bool, error) {
	req, ok := s.requests[id]
	if !ok || req.Status != fromStatus {
		return false, nil
	}
	req.Status = toStatus
	return true, nil
}

func (s *fakeRequestStore) UpdateDecision(ctx context.Context, id string, status types.RequestStatus, resendCount int, nextAllowedAt int64) error {
	req, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.Status = status
	req.ResendCount = resendCount
	req.NextAllowedAt = nextAllowedAt
	return nil
}

func (s *fakeRequestStore) UpdateResendState(ctx context.Context, id string, resendCount int, nextAllowedAt int64) error {
	req, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.ResendCount = resendCount
	req.NextAllowedAt = nextAllowedAt
	return nil
}

func (s *fakeRequestStore) CountRejections(ctx context.Context, projectID, userID string, direction types.RequestDirection) (int64, error) {
	return s.rejections[rejectionKey(projectID, userID, direction)], nil
}

func (s *fakeRequestStore) ListStuckAccepting(ctx context.Context, deadline int64, page, pageSize uint64) ([]types.ProjectRequest, error) {
	if page > 1 {
		return nil, nil
	}
	var stuck []types.ProjectRequest
	for _, req := range s.requests {
		if req.Status == types.REQUEST_STATUS_ACCEPTING && req.UpdatedAt < deadline {
			stuck = append(stuck, *req)
		}
	}
	return stuck, nil
}

type fakeMemberStore struct {
	store.TeamMemberStore
	members   map[string]*types.TeamMember
	createErr error
}

func memberKey(projectID, userID string) string {
	return projectID + "/" + userID
}

func (s *fakeMemberStore) Create(ctx context.Context, data types.TeamMember) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.members[memberKey(data.ProjectID, data.UserID)] = &data
	return nil
}

func (s *fakeMemberStore) GetMember(ctx context.Context, projectID, userID string) (*types.TeamMember, error) {
	member, ok := s.members[memberKey(projectID, userID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *member
	return &copied, nil
}

func (s *fakeMemberStore) List(ctx context.Context, opts types.ListTeamMemberOptions, page, pageSize uint64) ([]types.TeamMember, error) {
	var result []types.TeamMember
	for _, member := range s.members {
		if opts.ProjectID != "" && member.ProjectID != opts.ProjectID {
			continue
		}
		if opts.IsActive != nil && member.IsActive != *opts.IsActive {
			continue
		}
		result = append(result, *member)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

type fakeRoleStore struct {
	store.ProjectRoleStore
	roles map[string]types.ProjectRole
}

func (s *fakeRoleStore) GetRole(ctx context.Context, projectID, roleID string) (*types.ProjectRole, error) {
	role, ok := s.roles[roleID]
	if !ok || role.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return &role, nil
}

func (s *fakeRoleStore) ListRoles(ctx context.Context, projectID string) ([]types.ProjectRole, error) {
	var result []types.ProjectRole
	for _, role := range s.roles {
		if role.ProjectID == projectID {
			result = append(result, role)
		}
	}
	return result, nil
}

type markedCall struct {
	ReferenceID string
	ToStatus    types.NotificationStatus
}

type cancelledCall struct {
	ReferenceID string
	SenderID    string
}

type fakeNotificationStore struct {
	store.NotificationStore
	created   []types.Notification
	marked    []markedCall
	cancelled []cancelledCall
}

func (s *fakeNotificationStore) Create(ctx context.Context, data types.Notification) error {
	s.created = append(s.created, data)
	return nil
}

func (s *fakeNotificationStore) UpdateStatusByRef(ctx context.Context, referenceID string, kinds []types.NotificationKind, fromStatus, toStatus types.NotificationStatus) error {
	s.marked = append(s.marked, markedCall{ReferenceID: referenceID, ToStatus: toStatus})
	return nil
}

func (s *fakeNotificationStore) CancelPendingBySender(ctx context.Context, referenceID, senderID string) error {
	s.cancelled = append(s.cancelled, cancelledCall{ReferenceID: referenceID, SenderID: senderID})
	return nil
}

type fakeProjectStore struct {
	store.ProjectStore
	projects map[string]types.Project
}

func (s *fakeProjectStore) GetProject(ctx context.Context, projectID string) (*types.Project, error) {
	project, ok := s.projects[projectID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &project, nil
}

type fakePositionStore struct {
	store.PositionStore
	positions map[string]types.Position
}

func (s *fakePositionStore) GetPosition(ctx context.Context, projectID, positionID string) (*types.Position, error) {
	position, ok := s.positions[positionID]
	if !ok || position.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return &position, nil
}

type fakeUserStore struct {
	store.UserStore
	users map[string]types.User
}

func (s *fakeUserStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

type engineFixture struct {
	engine        *requestEngine
	requests      *fakeRequestStore
	members       *fakeMemberStore
	notifications *fakeNotificationStore
	projects      *fakeProjectStore
	users         *fakeUserStore
}

// newEngineFixture 预置一个项目：四个预设角色，owner/admin/member/viewer 四名成员，
// 以及一个尚未入队的用户 u-guest。
func newEngineFixture() *engineFixture {
	requests := &fakeRequestStore{
		requests:   make(map[string]*types.ProjectRequest),
		rejections: make(map[string]int64),
	}
	members := &fakeMemberStore{members: make(map[string]*types.TeamMember)}
	notifications := &fakeNotificationStore{}
	roles := &fakeRoleStore{roles: map[string]types.ProjectRole{
		"r-owner":  {ID: "r-owner", ProjectID: testProject, Name: "Owner", Preset: srv.RoleOwner},
		"r-admin":  {ID: "r-admin", ProjectID: testProject, Name: "Admin", Preset: srv.RoleAdmin},
		"r-member": {ID: "r-member", ProjectID: testProject, Name: "Member", Preset: srv.RoleMember},
		"r-viewer": {ID: "r-viewer", ProjectID: testProject, Name: "Viewer", Preset: srv.RoleViewer},
	}}
	projects := &fakeProjectStore{projects: map[string]types.Project{
		testProject: {ID: testProject, Title: "CrewHub", DefaultRoleID: "r-member", CreatedBy: "u-owner"},
	}}
	positions := &fakePositionStore{positions: map[string]types.Position{
		"pos-1": {ID: "pos-1", ProjectID: testProject, Title: "Backend Engineer", Status: types.POSITION_STATUS_OPEN},
	}}
	users := &fakeUserStore{users: map[string]types.User{
		"u-owner":  {ID: "u-owner", Name: "Olive"},
		"u-admin":  {ID: "u-admin", Name: "Ada"},
		"u-member": {ID: "u-member", Name: "Mori"},
		"u-viewer": {ID: "u-viewer", Name: "Vik"},
		"u-guest":  {ID: "u-guest", Name: "Gus", PublicRole: "Designer"},
	}}

	for userID, roleID := range map[string]string{
		"u-owner":  "r-owner",
		"u-admin":  "r-admin",
		"u-member": "r-member",
		"u-viewer": "r-viewer",
	} {
		members.members[memberKey(testProject, userID)] = &types.TeamMember{
			ProjectID: testProject,
			UserID:    userID,
			RoleID:    roleID,
			IsActive:  true,
		}
	}

	engine := &requestEngine{
		requests:      requests,
		members:       members,
		notifications: notifications,
		projects:      projects,
		roles:         roles,
		positions:     positions,
		users:         users,
		rbac:          srv.SetupRBACSrv(),
		transaction: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		now: func() int64 { return testNow },
	}

	return &engineFixture{
		engine:        engine,
		requests:      requests,
		members:       members,
		notifications: notifications,
		projects:      projects,
		users:         users,
	}
}

func (f *engineFixture) seedRequest(req types.ProjectRequest) *types.ProjectRequest {
	if req.Status == "" {
		req.Status = types.REQUEST_STATUS_PENDING
	}
	if req.CreatedAt == 0 {
		req.CreatedAt = testNow - 3600
	}
	if req.UpdatedAt == 0 {
		req.UpdatedAt = req.CreatedAt
	}
	f.requests.requests[req.ID] = &req
	return &req
}

func (f *engineFixture) createdKinds() []types.NotificationKind {
	var kinds []types.NotificationKind
	for _, n := range f.notifications.created {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func assertErrorCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	ce, ok := err.(*errors.CustomizedError)
	require.True(t, ok, "expected CustomizedError, got %T: %v", err, err)
	assert.Equal(t, code, ce.GetCode())
}

func TestEngineAcceptInvite(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	req, err := f.engine.manage(context.Background(), "u-guest", testProject, "req1", lifecycle.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, req.Status)
	assert.Equal(t, 0, req.ResendCount)
	assert.Equal(t, int64(0), req.NextAllowedAt)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, f.requests.requests["req1"].Status)

	member, err := f.members.GetMember(context.Background(), testProject, "u-guest")
	require.NoError(t, err)
	// 请求未指定角色时使用项目默认角色，展示角色取用户的公开角色
	assert.Equal(t, "r-member", member.RoleID)
	assert.Equal(t, "Designer", member.DisplayRole)
	assert.Equal(t, "u-admin", member.InvitedBy)
	assert.True(t, member.IsActive)

	require.Len(t, f.notifications.marked, 1)
	assert.Equal(t, markedCall{ReferenceID: "req1", ToStatus: types.NOTIFICATION_STATUS_ACCEPTED}, f.notifications.marked[0])

	var acceptedNotify *types.Notification
	memberAddedRecipients := map[string]bool{}
	for i, n := range f.notifications.created {
		switch n.Kind {
		case types.NOTIFICATION_KIND_PROJECT_INVITE_ACCEPTED:
			acceptedNotify = &f.notifications.created[i]
		case types.NOTIFICATION_KIND_PROJECT_MEMBER_ADDED:
			memberAddedRecipients[n.RecipientID] = true
			assert.Equal(t, testProject, n.ReferenceID)
			assert.Equal(t, types.NOTIFICATION_STATUS_INFO, n.Status)
		}
	}

	require.NotNil(t, acceptedNotify)
	assert.Equal(t, "u-admin", acceptedNotify.RecipientID)
	assert.Equal(t, "u-guest", acceptedNotify.SenderID)
	assert.Equal(t, testProject, acceptedNotify.ReferenceID)

	// viewer 没有成员通知能力，新成员与邀请人也不收广播
	assert.Equal(t, map[string]bool{"u-owner": true, "u-member": true}, memberAddedRecipients)
}

func TestEngineAcceptRollbackOnMemberFailure(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})
	f.members.createErr = sql.ErrConnDone

	_, err := f.engine.manage(context.Background(), "u-guest", testProject, "req1", lifecycle.ActionAccept)
	require.Error(t, err)

	// 成员写入失败后请求必须回到 pending，且不产生任何通知
	assert.Equal(t, types.REQUEST_STATUS_PENDING, f.requests.requests["req1"].Status)
	assert.Empty(t, f.notifications.created)
	assert.Empty(t, f.notifications.marked)
}

func TestEngineAcceptApplicationUsesRequestRole(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:         "req1",
		ProjectID:  testProject,
		UserID:     "u-guest",
		CreatedBy:  "u-guest",
		Direction:  types.REQUEST_DIRECTION_APPLICATION,
		RoleID:     "r-viewer",
		PositionID: "pos-1",
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, req.Status)

	member, err := f.members.GetMember(context.Background(), testProject, "u-guest")
	require.NoError(t, err)
	assert.Equal(t, "r-viewer", member.RoleID)
	// 职位名优先于用户公开角色
	assert.Equal(t, "Backend Engineer", member.DisplayRole)
	// 申请加入时邀请人记为申请人自己
	assert.Equal(t, "u-guest", member.InvitedBy)

	kinds := f.createdKinds()
	assert.Contains(t, kinds, types.NOTIFICATION_KIND_USER_REQUEST_ACCEPTED)
	// 申请通过只通知申请人，不向既有成员广播
	assert.NotContains(t, kinds, types.NOTIFICATION_KIND_PROJECT_MEMBER_ADDED)
}

func TestEngineManagePermissionDenied(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	// viewer 没有邀请管理权限
	_, err := f.engine.manage(context.Background(), "u-viewer", testProject, "req1", lifecycle.ActionCancel)
	assertErrorCode(t, err, 403)

	// 非本人不能接受邀请
	_, err = f.engine.manage(context.Background(), "u-member", testProject, "req1", lifecycle.ActionAccept)
	assertErrorCode(t, err, 403)
}

func TestEngineManageTerminalConflict(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
		Status:    types.REQUEST_STATUS_CANCELLED,
	})

	_, err := f.engine.manage(context.Background(), "u-guest", testProject, "req1", lifecycle.ActionAccept)
	assertErrorCode(t, err, 409)
}

func TestEngineManageWithoutRequestID(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	// 未指定请求时定位操作者本人的待处理邀请
	req, err := f.engine.manage(context.Background(), "u-guest", testProject, "", lifecycle.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, "req1", req.ID)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, req.Status)

	// 没有待处理邀请时返回 404
	_, err = f.engine.manage(context.Background(), "u-viewer", testProject, "", lifecycle.ActionAccept)
	assertErrorCode(t, err, 404)
}

func TestEngineManageWrongProject(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: "p-other",
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	_, err := f.engine.manage(context.Background(), "u-guest", testProject, "req1", lifecycle.ActionAccept)
	assertErrorCode(t, err, 404)
}

func TestEngineRejectApplicationBackoff(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-guest",
		Direction: types.REQUEST_DIRECTION_APPLICATION,
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_REJECTED, req.Status)
	// 首次被拒冷却 7 天
	assert.Equal(t, testNow+7*24*3600, req.NextAllowedAt)
	assert.Equal(t, 0, req.ResendCount)
	assert.Equal(t, 0, f.requests.requests["req1"].ResendCount)

	require.Len(t, f.notifications.marked, 1)
	assert.Equal(t, types.NOTIFICATION_STATUS_DECLINED, f.notifications.marked[0].ToStatus)
	assert.Contains(t, f.createdKinds(), types.NOTIFICATION_KIND_USER_REQUEST_REJECTED)
}

func TestEngineRejectApplicationRepeatOffender(t *testing.T) {
	f := newEngineFixture()
	f.requests.rejections[rejectionKey(testProject, "u-guest", types.REQUEST_DIRECTION_APPLICATION)] = 1
	f.seedRequest(types.ProjectRequest{
		ID:        "req2",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-guest",
		Direction: types.REQUEST_DIRECTION_APPLICATION,
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req2", lifecycle.ActionReject)
	require.NoError(t, err)
	// 累计第二次被拒冷却 30 天
	assert.Equal(t, testNow+30*24*3600, req.NextAllowedAt)
}

func TestEngineCancelInvite(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:          "req1",
		ProjectID:   testProject,
		UserID:      "u-guest",
		CreatedBy:   "u-admin",
		Direction:   types.REQUEST_DIRECTION_INVITE,
		ResendCount: 2,
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_CANCELLED, req.Status)
	assert.Equal(t, testNow+7*24*3600, req.NextAllowedAt)
	// 取消后重发计数清零
	assert.Equal(t, 0, req.ResendCount)
	assert.Equal(t, 0, f.requests.requests["req1"].ResendCount)

	require.Len(t, f.notifications.cancelled, 1)
	assert.Equal(t, cancelledCall{ReferenceID: "req1", SenderID: "u-admin"}, f.notifications.cancelled[0])
}

func TestEngineRejectInviteResetsResend(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:          "req1",
		ProjectID:   testProject,
		UserID:      "u-guest",
		CreatedBy:   "u-admin",
		Direction:   types.REQUEST_DIRECTION_INVITE,
		ResendCount: 3,
	})

	req, err := f.engine.manage(context.Background(), "u-guest", testProject, "req1", lifecycle.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_REJECTED, req.Status)
	// 拒绝后重发计数清零，冷却固定 14 天
	assert.Equal(t, 0, req.ResendCount)
	assert.Equal(t, 0, f.requests.requests["req1"].ResendCount)
	assert.Equal(t, testNow+14*24*3600, req.NextAllowedAt)
}

func TestEngineResendInvite(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionResend)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, req.Status)
	assert.Equal(t, 1, req.ResendCount)
	assert.Equal(t, testNow+3*24*3600, req.NextAllowedAt)

	require.Len(t, f.notifications.created, 1)
	notify := f.notifications.created[0]
	assert.Equal(t, types.NOTIFICATION_KIND_PROJECT_INVITE, notify.Kind)
	assert.Equal(t, "u-guest", notify.RecipientID)
	assert.Equal(t, "req1", notify.ReferenceID)
	assert.Equal(t, types.NOTIFICATION_STATUS_PENDING, notify.Status)

	// 冷却期内再次重发被拒
	_, err = f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionResend)
	assertErrorCode(t, err, 429)
}

func TestEngineResetPreservesCounters(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:            "req1",
		ProjectID:     testProject,
		UserID:        "u-guest",
		CreatedBy:     "u-admin",
		Direction:     types.REQUEST_DIRECTION_INVITE,
		Status:        types.REQUEST_STATUS_CANCELLED,
		ResendCount:   2,
		NextAllowedAt: testNow + 1000,
	})

	req, err := f.engine.manage(context.Background(), "u-admin", testProject, "req1", lifecycle.ActionReset)
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, req.Status)
	assert.Equal(t, 2, req.ResendCount)
	assert.Equal(t, testNow+1000, req.NextAllowedAt)
	assert.Empty(t, f.notifications.created)
}

func TestEngineCreateInvite(t *testing.T) {
	f := newEngineFixture()

	req, err := f.engine.createInvite(context.Background(), "u-admin", testProject, "u-guest", "", "pos-1")
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, req.Status)
	assert.Equal(t, types.REQUEST_DIRECTION_INVITE, req.Direction)
	assert.Equal(t, "u-admin", req.CreatedBy)

	require.Len(t, f.notifications.created, 1)
	notify := f.notifications.created[0]
	assert.Equal(t, types.NOTIFICATION_KIND_PROJECT_INVITE, notify.Kind)
	assert.Equal(t, "u-guest", notify.RecipientID)
	assert.Equal(t, req.ID, notify.ReferenceID)
}

func TestEngineCreateInviteRejectsDuplicate(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:        "req1",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
	})

	_, err := f.engine.createInvite(context.Background(), "u-admin", testProject, "u-guest", "", "")
	assertErrorCode(t, err, 400)
}

func TestEngineCreateInviteCooldown(t *testing.T) {
	f := newEngineFixture()
	f.seedRequest(types.ProjectRequest{
		ID:            "req1",
		ProjectID:     testProject,
		UserID:        "u-guest",
		CreatedBy:     "u-admin",
		Direction:     types.REQUEST_DIRECTION_INVITE,
		Status:        types.REQUEST_STATUS_CANCELLED,
		NextAllowedAt: testNow + 5000,
	})

	_, err := f.engine.createInvite(context.Background(), "u-admin", testProject, "u-guest", "", "")
	assertErrorCode(t, err, 429)
	ce := err.(*errors.CustomizedError)
	assert.Equal(t, testNow+5000, ce.Data()["ResumeAt"])
}

func TestEngineCreateInviteDeniesNonManager(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.createInvite(context.Background(), "u-member", testProject, "u-guest", "", "")
	assertErrorCode(t, err, 403)

	_, err = f.engine.createInvite(context.Background(), "u-guest", testProject, "u-viewer", "", "")
	assertErrorCode(t, err, 403)
}

func TestEngineCreateInviteRejectsExistingMember(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.createInvite(context.Background(), "u-admin", testProject, "u-member", "", "")
	assertErrorCode(t, err, 400)
}

func TestEngineApplyFanout(t *testing.T) {
	f := newEngineFixture()

	req, err := f.engine.apply(context.Background(), "u-guest", testProject, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_DIRECTION_APPLICATION, req.Direction)
	assert.Equal(t, "u-guest", req.CreatedBy)

	// 只有具备申请管理权限的成员收到待处理通知
	recipients := map[string]bool{}
	for _, n := range f.notifications.created {
		require.Equal(t, types.NOTIFICATION_KIND_PROJECT_REQUEST, n.Kind)
		require.Equal(t, req.ID, n.ReferenceID)
		require.Equal(t, types.NOTIFICATION_STATUS_PENDING, n.Status)
		recipients[n.RecipientID] = true
	}
	assert.Equal(t, map[string]bool{"u-owner": true, "u-admin": true}, recipients)
}

func TestEngineApplyRejectsDuplicate(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.apply(context.Background(), "u-guest", testProject, "")
	require.NoError(t, err)

	_, err = f.engine.apply(context.Background(), "u-guest", testProject, "")
	assertErrorCode(t, err, 400)
}

func TestEngineApplyUnknownProject(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.apply(context.Background(), "u-guest", "p-missing", "")
	assertErrorCode(t, err, 404)
}

func TestEngineSweepAccepting(t *testing.T) {
	f := newEngineFixture()

	// 事务实际成功但终态未写入：成员已存在，补记为 accepted
	f.seedRequest(types.ProjectRequest{
		ID:        "req-done",
		ProjectID: testProject,
		UserID:    "u-member",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
		Status:    types.REQUEST_STATUS_ACCEPTING,
		UpdatedAt: testNow - 7200,
	})
	// 成员未写入：回滚到 pending
	f.seedRequest(types.ProjectRequest{
		ID:        "req-stuck",
		ProjectID: testProject,
		UserID:    "u-guest",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
		Status:    types.REQUEST_STATUS_ACCEPTING,
		UpdatedAt: testNow - 7200,
	})
	// 未超过阈值的 accepting 不处理
	f.seedRequest(types.ProjectRequest{
		ID:        "req-fresh",
		ProjectID: testProject,
		UserID:    "u-viewer",
		CreatedBy: "u-admin",
		Direction: types.REQUEST_DIRECTION_INVITE,
		Status:    types.REQUEST_STATUS_ACCEPTING,
		UpdatedAt: testNow - 10,
	})

	err := f.engine.sweepAccepting(context.Background(), testNow-3600)
	require.NoError(t, err)

	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, f.requests.requests["req-done"].Status)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, f.requests.requests["req-stuck"].Status)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTING, f.requests.requests["req-fresh"].Status)
}
