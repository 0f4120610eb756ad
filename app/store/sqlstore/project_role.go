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
		provider.stores.ProjectRoleStore = NewProjectRoleStore(provider)
	})
}

func NewProjectRoleStore(provider SqlProviderAchieve) *ProjectRoleStoreImpl {
	repo := &ProjectRoleStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROJECT_ROLE)
	repo.SetAllColumns("id", "project_id", "name", "preset", "created_at")
	return repo
}

type ProjectRoleStoreImpl struct {
	CommonFields
}

func (s *ProjectRoleStoreImpl) Create(ctx context.Context, data types.ProjectRole) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.Name, data.Preset, data.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectRoleStoreImpl) GetRole(ctx context.Context, projectID, roleID string) (*types.ProjectRole, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "id": roleID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.ProjectRole
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *ProjectRoleStoreImpl) ListRoles(ctx context.Context, projectID string) ([]types.ProjectRole, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at ASC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.ProjectRole
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *ProjectRoleStoreImpl) Delete(ctx context.Context, projectID, roleID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": roleID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}
