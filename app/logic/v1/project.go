package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/crewhub/crewhub/app/core"
	"github.com/crewhub/crewhub/app/core/srv"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/lifecycle"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

type ProjectLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewProjectLogic(ctx context.Context, core *core.Core) *ProjectLogic {
	return &ProjectLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

// presetRoles 新项目的内置角色，顺序决定展示顺序
var presetRoles = []struct {
	Name   string
	Preset string
}{
	{"Owner", srv.RoleOwner},
	{"Admin", srv.RoleAdmin},
	{"Member", srv.RoleMember},
	{"Viewer", srv.RoleViewer},
}

func (l *ProjectLogic) CreateProject(title, description string) (string, error) {
	userID := l.GetUserInfo().User

	user, err := l.core.Store().UserStore().GetUser(l.ctx, userID)
	if err != nil {
		return "", errors.New("ProjectLogic.CreateProject.UserStore.GetUser", i18n.ERROR_INTERNAL, err)
	}

	projectID := utils.GenRandomID()
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		var ownerRoleID, defaultRoleID string
		for _, preset := range presetRoles {
			role := types.ProjectRole{
				ID:        utils.GenRandomID(),
				ProjectID: projectID,
				Name:      preset.Name,
				Preset:    preset.Preset,
				CreatedAt: time.Now().Unix(),
			}
			if err := l.core.Store().ProjectRoleStore().Create(ctx, role); err != nil {
				return errors.New("ProjectLogic.CreateProject.ProjectRoleStore.Create", i18n.ERROR_INTERNAL, err)
			}
			switch preset.Preset {
			case srv.RoleOwner:
				ownerRoleID = role.ID
			case srv.RoleMember:
				defaultRoleID = role.ID
			}
		}

		if err := l.core.Store().ProjectStore().Create(ctx, types.Project{
			ID:            projectID,
			Title:         title,
			Description:   description,
			DefaultRoleID: defaultRoleID,
			CreatedBy:     userID,
			CreatedAt:     time.Now().Unix(),
			UpdatedAt:     time.Now().Unix(),
		}); err != nil {
			return errors.New("ProjectLogic.CreateProject.ProjectStore.Create", i18n.ERROR_INTERNAL, err)
		}

		if err := l.core.Store().TeamMemberStore().Create(ctx, types.TeamMember{
			ProjectID:   projectID,
			UserID:      userID,
			RoleID:      ownerRoleID,
			DisplayRole: lifecycle.ResolveDisplayRole("", user.PublicRole, "Owner"),
			InvitedBy:   userID,
			InvitedAt:   time.Now().Unix(),
			JoinedDate:  time.Now().Unix(),
			IsActive:    true,
			CreatedAt:   time.Now().Unix(),
		}); err != nil {
			return errors.New("ProjectLogic.CreateProject.TeamMemberStore.Create", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return projectID, nil
}

func (l *ProjectLogic) GetProject(projectID string) (*types.Project, error) {
	project, err := l.core.Store().ProjectStore().GetProject(l.ctx, projectID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ProjectLogic.GetProject.ProjectStore.GetProject", i18n.ERROR_INTERNAL, err)
	}
	if project == nil {
		return nil, errors.New("ProjectLogic.GetProject.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return project, nil
}

type MemberDetail struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Avatar      string `json:"avatar"`
	RoleID      string `json:"role_id"`
	DisplayRole string `json:"display_role"`
	InvitedBy   string `json:"invited_by"`
	JoinedDate  int64  `json:"joined_date"`
	IsActive    bool   `json:"is_active"`
}

func (l *ProjectLogic) ListMembers(projectID string, page, pageSize uint64) ([]MemberDetail, int64, error) {
	opts := types.ListTeamMemberOptions{ProjectID: projectID}

	members, err := l.core.Store().TeamMemberStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("ProjectLogic.ListMembers.TeamMemberStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().TeamMemberStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("ProjectLogic.ListMembers.TeamMemberStore.Total", i18n.ERROR_INTERNAL, err)
	}

	if len(members) == 0 {
		return nil, total, nil
	}

	userIDs := lo.Map(members, func(item types.TeamMember, _ int) string {
		return item.UserID
	})
	users, err := l.core.Store().UserStore().ListUsers(l.ctx, types.ListUserOptions{IDs: userIDs}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil {
		return nil, 0, errors.New("ProjectLogic.ListMembers.UserStore.ListUsers", i18n.ERROR_INTERNAL, err)
	}
	userMap := lo.SliceToMap(users, func(item types.User) (string, types.User) {
		return item.ID, item
	})

	details := lo.Map(members, func(item types.TeamMember, _ int) MemberDetail {
		u := userMap[item.UserID]
		return MemberDetail{
			UserID:      item.UserID,
			UserName:    u.Name,
			Avatar:      u.Avatar,
			RoleID:      item.RoleID,
			DisplayRole: item.DisplayRole,
			InvitedBy:   item.InvitedBy,
			JoinedDate:  item.JoinedDate,
			IsActive:    item.IsActive,
		}
	})

	return details, total, nil
}

func (l *ProjectLogic) CreatePosition(projectID, title string) (string, error) {
	position := types.Position{
		ID:        utils.GenRandomID(),
		ProjectID: projectID,
		Title:     title,
		Status:    types.POSITION_STATUS_OPEN,
		CreatedAt: time.Now().Unix(),
	}
	if err := l.core.Store().PositionStore().Create(l.ctx, position); err != nil {
		return "", errors.New("ProjectLogic.CreatePosition.PositionStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return position.ID, nil
}

func (l *ProjectLogic) ListPositions(projectID string, status types.PositionStatus) ([]types.Position, error) {
	positions, err := l.core.Store().PositionStore().ListPositions(l.ctx, projectID, status)
	if err != nil {
		return nil, errors.New("ProjectLogic.ListPositions.PositionStore.ListPositions", i18n.ERROR_INTERNAL, err)
	}
	return positions, nil
}
