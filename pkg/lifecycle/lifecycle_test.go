package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhub/crewhub/pkg/types"
)

func pendingInvite() *types.ProjectRequest {
	return &types.ProjectRequest{
		ID:        "req-1",
		ProjectID: "proj-1",
		UserID:    "invitee",
		CreatedBy: "inviter",
		Direction: types.REQUEST_DIRECTION_INVITE,
		Status:    types.REQUEST_STATUS_PENDING,
	}
}

func pendingApplication() *types.ProjectRequest {
	return &types.ProjectRequest{
		ID:        "req-2",
		ProjectID: "proj-1",
		UserID:    "applicant",
		CreatedBy: "applicant",
		Direction: types.REQUEST_DIRECTION_APPLICATION,
		Status:    types.REQUEST_STATUS_PENDING,
	}
}

func managerCaps() Capabilities {
	return Capabilities{}.
		Grant(ResourceInvitations, CapabilityUpdate).
		Grant(ResourceApplications, CapabilityUpdate).
		Grant(ResourceMembers, CapabilityUpdate, CapabilityNotification)
}

func TestAuthorizeMatrix(t *testing.T) {
	tests := []struct {
		name   string
		req    *types.ProjectRequest
		actor  string
		action Action
		caps   Capabilities
		err    error
	}{
		{"invite accept by invitee", pendingInvite(), "invitee", ActionAccept, nil, nil},
		{"invite accept by manager", pendingInvite(), "manager", ActionAccept, managerCaps(), ErrUnauthorized},
		{"invite reject by invitee", pendingInvite(), "invitee", ActionReject, nil, nil},
		{"invite reject by other", pendingInvite(), "stranger", ActionReject, nil, ErrUnauthorized},
		{"invite cancel needs invitations.update", pendingInvite(), "manager", ActionCancel, managerCaps(), nil},
		{"invite cancel by invitee denied", pendingInvite(), "invitee", ActionCancel, nil, ErrUnauthorized},
		{"invite resend needs invitations.update", pendingInvite(), "manager", ActionResend, managerCaps(), nil},
		{"invite resend without caps", pendingInvite(), "inviter", ActionResend, nil, ErrUnauthorized},
		{"application accept needs applications.update", pendingApplication(), "manager", ActionAccept, managerCaps(), nil},
		{"application accept by applicant denied", pendingApplication(), "applicant", ActionAccept, nil, ErrUnauthorized},
		{"application reject without caps", pendingApplication(), "stranger", ActionReject, nil, ErrUnauthorized},
		{"application cancel by applicant", pendingApplication(), "applicant", ActionCancel, nil, nil},
		{"application cancel by manager", pendingApplication(), "manager", ActionCancel, managerCaps(), nil},
		{"application cancel by stranger", pendingApplication(), "stranger", ActionCancel, nil, ErrUnauthorized},
		{"application resend is invalid", pendingApplication(), "manager", ActionResend, managerCaps(), ErrInvalidAction},
		{"reset invite needs invitations.update", pendingInvite(), "manager", ActionReset, managerCaps(), nil},
		{"reset application without caps", pendingApplication(), "applicant", ActionReset, nil, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.req, tt.actor, tt.action, tt.caps)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecideTerminalStatusRejectsAllButReset(t *testing.T) {
	now := int64(1_700_000_000)
	for _, status := range []types.RequestStatus{
		types.REQUEST_STATUS_ACCEPTED,
		types.REQUEST_STATUS_REJECTED,
		types.REQUEST_STATUS_CANCELLED,
		types.REQUEST_STATUS_ACCEPTING,
	} {
		req := pendingInvite()
		req.Status = status

		for _, action := range []Action{ActionCancel, ActionResend} {
			_, err := Decide(req, Input{Actor: "manager", Action: action, Now: now, Capabilities: managerCaps()})
			assert.ErrorIs(t, err, ErrInvalidState, "status=%s action=%s", status, action)
		}
		_, err := Decide(req, Input{Actor: "invitee", Action: ActionAccept, Now: now})
		assert.ErrorIs(t, err, ErrInvalidState, "status=%s accept", status)

		decision, err := Decide(req, Input{Actor: "manager", Action: ActionReset, Now: now, Capabilities: managerCaps()})
		require.NoError(t, err, "status=%s reset", status)
		assert.Equal(t, types.REQUEST_STATUS_PENDING, decision.Status)
	}
}

func TestDecideResetPreservesCooldownState(t *testing.T) {
	req := pendingInvite()
	req.Status = types.REQUEST_STATUS_REJECTED
	req.ResendCount = 3
	req.NextAllowedAt = 1_700_500_000

	decision, err := Decide(req, Input{Actor: "manager", Action: ActionReset, Now: 1_700_000_000, Capabilities: managerCaps()})
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, decision.Status)
	assert.Equal(t, 3, decision.ResendCount)
	assert.Equal(t, int64(1_700_500_000), decision.NextAllowedAt)
	assert.Empty(t, decision.Commands)
}

func TestDecideAcceptInvite(t *testing.T) {
	now := int64(1_700_000_000)
	req := pendingInvite()
	req.ResendCount = 2
	req.NextAllowedAt = now + 1000

	decision, err := Decide(req, Input{
		Actor:       "invitee",
		Action:      ActionAccept,
		Now:         now,
		RoleID:      "role-member",
		DisplayRole: "Backend Engineer",
	})
	require.NoError(t, err)

	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, decision.Status)
	assert.Zero(t, decision.ResendCount)
	assert.Zero(t, decision.NextAllowedAt)

	var member *CreateMemberCommand
	var accepted *SendNotificationCommand
	var fanout *FanoutMemberAddedCommand
	for _, cmd := range decision.Commands {
		switch c := cmd.(type) {
		case CreateMemberCommand:
			member = &c
		case SendNotificationCommand:
			accepted = &c
		case FanoutMemberAddedCommand:
			fanout = &c
		}
	}

	require.NotNil(t, member)
	assert.Equal(t, "proj-1", member.ProjectID)
	assert.Equal(t, "invitee", member.UserID)
	assert.Equal(t, "role-member", member.RoleID)
	assert.Equal(t, "Backend Engineer", member.DisplayRole)
	assert.Equal(t, "inviter", member.InvitedBy)

	require.NotNil(t, accepted)
	assert.Equal(t, "inviter", accepted.RecipientID)
	assert.Equal(t, types.NOTIFICATION_KIND_PROJECT_INVITE_ACCEPTED, accepted.Kind)

	require.NotNil(t, fanout)
	assert.Equal(t, "invitee", fanout.NewMemberID)
	assert.Equal(t, "inviter", fanout.InvitedBy)
}

func TestDecideAcceptApplication(t *testing.T) {
	req := pendingApplication()

	decision, err := Decide(req, Input{
		Actor:        "manager",
		Action:       ActionAccept,
		Now:          1_700_000_000,
		Capabilities: managerCaps(),
		RoleID:       "role-member",
		DisplayRole:  "Designer",
	})
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_ACCEPTED, decision.Status)

	for _, cmd := range decision.Commands {
		switch c := cmd.(type) {
		case CreateMemberCommand:
			assert.Equal(t, "applicant", c.InvitedBy)
		case SendNotificationCommand:
			assert.Equal(t, "applicant", c.RecipientID)
			assert.Equal(t, "manager", c.SenderID)
			assert.Equal(t, types.NOTIFICATION_KIND_USER_REQUEST_ACCEPTED, c.Kind)
		case FanoutMemberAddedCommand:
			t.Fatalf("application accept must not broadcast member added")
		}
	}
}

func TestDecideAcceptWithoutRole(t *testing.T) {
	_, err := Decide(pendingInvite(), Input{Actor: "invitee", Action: ActionAccept, Now: 1})
	assert.ErrorIs(t, err, ErrRoleResolution)
}

func TestDecideRejectApplicationBackoff(t *testing.T) {
	now := int64(1_700_000_000)

	first, err := Decide(pendingApplication(), Input{
		Actor:          "manager",
		Action:         ActionReject,
		Now:            now,
		Capabilities:   managerCaps(),
		RejectionCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_REJECTED, first.Status)
	assert.Equal(t, now+7*86400, first.NextAllowedAt)
	assert.Zero(t, first.ResendCount)

	second, err := Decide(pendingApplication(), Input{
		Actor:          "manager",
		Action:         ActionReject,
		Now:            now,
		Capabilities:   managerCaps(),
		RejectionCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, now+30*86400, second.NextAllowedAt)
}

func TestDecideRejectInviteWindow(t *testing.T) {
	now := int64(1_700_000_000)
	req := pendingInvite()
	req.ResendCount = 3
	decision, err := Decide(req, Input{Actor: "invitee", Action: ActionReject, Now: now})
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_REJECTED, decision.Status)
	assert.Equal(t, now+14*86400, decision.NextAllowedAt)
	assert.Zero(t, decision.ResendCount)

	var notified *SendNotificationCommand
	for _, cmd := range decision.Commands {
		if c, ok := cmd.(SendNotificationCommand); ok {
			notified = &c
		}
	}
	require.NotNil(t, notified)
	assert.Equal(t, "inviter", notified.RecipientID)
	assert.Equal(t, types.NOTIFICATION_KIND_PROJECT_INVITE_REJECTED, notified.Kind)
}

func TestDecideCancel(t *testing.T) {
	now := int64(1_700_000_000)
	for _, req := range []*types.ProjectRequest{pendingInvite(), pendingApplication()} {
		req.ResendCount = 4
		actor := "manager"
		decision, err := Decide(req, Input{Actor: actor, Action: ActionCancel, Now: now, Capabilities: managerCaps()})
		require.NoError(t, err, "direction=%s", req.Direction)
		assert.Equal(t, types.REQUEST_STATUS_CANCELLED, decision.Status)
		assert.Equal(t, now+7*86400, decision.NextAllowedAt)
		assert.Zero(t, decision.ResendCount, "direction=%s", req.Direction)
		require.Len(t, decision.Commands, 1)
		assert.IsType(t, CancelRequestNotificationsCommand{}, decision.Commands[0])
	}
}

func TestDecideResendProgression(t *testing.T) {
	now := int64(1_700_000_000)
	req := pendingInvite()

	// 第一次重发无冷却限制，窗口按 3 天推进
	decision, err := Decide(req, Input{Actor: "manager", Action: ActionResend, Now: now, Capabilities: managerCaps()})
	require.NoError(t, err)
	assert.Equal(t, types.REQUEST_STATUS_PENDING, decision.Status)
	assert.Equal(t, 1, decision.ResendCount)
	assert.Equal(t, now+3*86400, decision.NextAllowedAt)
	require.Len(t, decision.Commands, 1)
	cmd, ok := decision.Commands[0].(SendNotificationCommand)
	require.True(t, ok)
	assert.Equal(t, "invitee", cmd.RecipientID)
	assert.Equal(t, types.NOTIFICATION_KIND_PROJECT_INVITE, cmd.Kind)
	assert.Equal(t, types.NOTIFICATION_STATUS_PENDING, cmd.Status)

	// 冷却期内再次重发被拒绝
	req.ResendCount = decision.ResendCount
	req.NextAllowedAt = decision.NextAllowedAt
	_, err = Decide(req, Input{Actor: "manager", Action: ActionResend, Now: now + 86400, Capabilities: managerCaps()})
	var cooldown *CooldownActiveError
	require.True(t, errors.As(err, &cooldown))
	assert.Equal(t, req.NextAllowedAt, cooldown.ResumeAt)

	// 冷却期过后窗口按计数推进到 7 天
	decision, err = Decide(req, Input{Actor: "manager", Action: ActionResend, Now: req.NextAllowedAt, Capabilities: managerCaps()})
	require.NoError(t, err)
	assert.Equal(t, 2, decision.ResendCount)
	assert.Equal(t, req.NextAllowedAt+7*86400, decision.NextAllowedAt)
}

func TestDecideResendLimit(t *testing.T) {
	req := pendingInvite()
	req.ResendCount = ResendLimit

	_, err := Decide(req, Input{Actor: "manager", Action: ActionResend, Now: 1_800_000_000, Capabilities: managerCaps()})
	assert.ErrorIs(t, err, ErrResendLimitExceeded)
}

func TestDecideUnknownAction(t *testing.T) {
	_, err := Decide(pendingInvite(), Input{Actor: "invitee", Action: Action("approve"), Now: 1})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestResolveDisplayRole(t *testing.T) {
	assert.Equal(t, "Backend Engineer", ResolveDisplayRole("Backend Engineer", "Freelancer", "Member"))
	assert.Equal(t, "Freelancer", ResolveDisplayRole("  ", "Freelancer", "Member"))
	assert.Equal(t, "Member", ResolveDisplayRole("", "", "Member"))
	assert.Equal(t, "", ResolveDisplayRole("", "", ""))
}
