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
		provider.stores.ProjectRequestStore = NewProjectRequestStore(provider)
	})
}

func NewProjectRequestStore(provider SqlProviderAchieve) *ProjectRequestStoreImpl {
	repo := &ProjectRequestStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROJECT_REQUEST)
	repo.SetAllColumns(
		"id", "project_id", "user_id", "created_by", "direction", "status",
		"role_id", "position_id", "resend_count", "next_allowed_at", "created_at", "updated_at",
	)
	return repo
}

type ProjectRequestStoreImpl struct {
	CommonFields
}

func (s *ProjectRequestStoreImpl) Create(ctx context.Context, data *types.ProjectRequest) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.UserID, data.CreatedBy, data.Direction, data.Status,
			data.RoleID, data.PositionID, data.ResendCount, data.NextAllowedAt, data.CreatedAt, data.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectRequestStoreImpl) GetByID(ctx context.Context, id string) (*types.ProjectRequest, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.ProjectRequest
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *ProjectRequestStoreImpl) GetPending(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "user_id": userID, "direction": direction}).
		Where(sq.Eq{"status": []types.RequestStatus{types.REQUEST_STATUS_PENDING, types.REQUEST_STATUS_ACCEPTING}})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.ProjectRequest
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *ProjectRequestStoreImpl) GetLatest(ctx context.Context, projectID, userID string, direction types.RequestDirection) (*types.ProjectRequest, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "user_id": userID, "direction": direction}).
		OrderBy("updated_at DESC").
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.ProjectRequest
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

// UpdateStatusCAS 带前置状态条件的更新，返回是否真正命中一行。
// 并发的两次相同操作只有一次会返回 true。
func (s *ProjectRequestStoreImpl) UpdateStatusCAS(ctx context.Context, id string, fromStatus, toStatus types.RequestStatus) (bool, error) {
	query := sq.Update(s.GetTable()).
		Set("status", toStatus).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id, "status": fromStatus})

	sql, args, err := query.ToSql()
	if err != nil {
		return false, ErrorSqlBuild(err)
	}

	result, err := s.GetMaster(ctx).Exec(sql, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *ProjectRequestStoreImpl) UpdateDecision(ctx context.Context, id string, status types.RequestStatus, resendCount int, nextAllowedAt int64) error {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Set("resend_count", resendCount).
		Set("next_allowed_at", nextAllowedAt).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectRequestStoreImpl) UpdateResendState(ctx context.Context, id string, resendCount int, nextAllowedAt int64) error {
	query := sq.Update(s.GetTable()).
		Set("resend_count", resendCount).
		Set("next_allowed_at", nextAllowedAt).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *ProjectRequestStoreImpl) CountRejections(ctx context.Context, projectID, userID string, direction types.RequestDirection) (int64, error) {
	query := sq.Select("COUNT(*)").
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "user_id": userID, "direction": direction, "status": types.REQUEST_STATUS_REJECTED})

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

func (s *ProjectRequestStoreImpl) ListStuckAccepting(ctx context.Context, deadline int64, page, pageSize uint64) ([]types.ProjectRequest, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"status": types.REQUEST_STATUS_ACCEPTING}).
		Where(sq.Lt{"updated_at": deadline}).
		OrderBy("updated_at ASC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.ProjectRequest
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *ProjectRequestStoreImpl) List(ctx context.Context, opts types.ListProjectRequestOptions, page, pageSize uint64) ([]types.ProjectRequest, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		OrderBy("created_at DESC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.ProjectRequest
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *ProjectRequestStoreImpl) Total(ctx context.Context, opts types.ListProjectRequestOptions) (int64, error) {
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
