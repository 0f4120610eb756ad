package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/crewhub/crewhub/pkg/register"
	"github.com/crewhub/crewhub/pkg/types"
)

func init() {
	register.RegisterFunc(RegisterKey{}, func(provider *Provider) {
		provider.stores.TeamMemberStore = NewTeamMemberStore(provider)
	})
}

func NewTeamMemberStore(provider SqlProviderAchieve) *TeamMemberStoreImpl {
	repo := &TeamMemberStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_TEAM_MEMBER)
	repo.SetAllColumns(
		"id", "project_id", "user_id", "role_id", "display_role",
		"invited_by", "invited_at", "joined_date", "is_active", "created_at",
	)
	return repo
}

type TeamMemberStoreImpl struct {
	CommonFields
}

func (s *TeamMemberStoreImpl) Create(ctx context.Context, data types.TeamMember) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.JoinedDate == 0 {
		data.JoinedDate = data.CreatedAt
	}

	query := sq.Insert(s.GetTable()).
		Columns("project_id", "user_id", "role_id", "display_role",
			"invited_by", "invited_at", "joined_date", "is_active", "created_at").
		Values(data.ProjectID, data.UserID, data.RoleID, data.DisplayRole,
			data.InvitedBy, data.InvitedAt, data.JoinedDate, data.IsActive, data.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *TeamMemberStoreImpl) GetMember(ctx context.Context, projectID, userID string) (*types.TeamMember, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.TeamMember
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *TeamMemberStoreImpl) UpdateRole(ctx context.Context, projectID, userID, roleID string) error {
	query := sq.Update(s.GetTable()).
		Set("role_id", roleID).
		Where(sq.Eq{"project_id": projectID, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *TeamMemberStoreImpl) UpdateDisplayRole(ctx context.Context, projectID, userID, displayRole string) error {
	query := sq.Update(s.GetTable()).
		Set("display_role", displayRole).
		Where(sq.Eq{"project_id": projectID, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *TeamMemberStoreImpl) Deactivate(ctx context.Context, projectID, userID string) error {
	query := sq.Update(s.GetTable()).
		Set("is_active", false).
		Where(sq.Eq{"project_id": projectID, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *TeamMemberStoreImpl) Delete(ctx context.Context, projectID, userID string) error {
	query := sq.Delete(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *TeamMemberStoreImpl) List(ctx context.Context, opts types.ListTeamMemberOptions, page, pageSize uint64) ([]types.TeamMember, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		OrderBy("created_at ASC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.TeamMember
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *TeamMemberStoreImpl) Total(ctx context.Context, opts types.ListTeamMemberOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())

	opts.Apply(&query)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, sql, args...); err != nil {
		return 0, err
	}

	return total, nil
}

func (s *TeamMemberStoreImpl) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	query := sq.Select("user_id").
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "is_active": true})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var ids []string
	if err = s.GetReplica(ctx).Select(&ids, sql, args...); err != nil {
		return nil, err
	}

	return ids, nil
}
