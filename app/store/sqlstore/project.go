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
		provider.stores.ProjectStore = NewProjectStore(provider)
	})
}

func NewProjectStore(provider SqlProviderAchieve) *ProjectStoreImpl {
	repo := &ProjectStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROJECT)
	repo.SetAllColumns(
		"id", "title", "description", "default_role_id", "created_by", "created_at", "updated_at",
	)
	return repo
}

type ProjectStoreImpl struct {
	CommonFields
}

func (s *ProjectStoreImpl) Create(ctx context.Context, data types.Project) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.Description, data.DefaultRoleID, data.CreatedBy, data.CreatedAt, data.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectStoreImpl) GetProject(ctx context.Context, projectID string) (*types.Project, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"id": projectID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.Project
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *ProjectStoreImpl) Update(ctx context.Context, projectID, title, description string) error {
	query := sq.Update(s.GetTable()).
		Set("title", title).
		Set("description", description).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": projectID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectStoreImpl) UpdateDefaultRole(ctx context.Context, projectID, roleID string) error {
	query := sq.Update(s.GetTable()).
		Set("default_role_id", roleID).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": projectID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectStoreImpl) Delete(ctx context.Context, projectID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": projectID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectStoreImpl) List(ctx context.Context, projectIDs []string, page, pageSize uint64) ([]types.Project, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		OrderBy("created_at DESC")

	if len(projectIDs) > 0 {
		query = query.Where(sq.Eq{"id": projectIDs})
	}

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.Project
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}
