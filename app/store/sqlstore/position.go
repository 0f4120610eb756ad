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
		provider.stores.PositionStore = NewPositionStore(provider)
	})
}

func NewPositionStore(provider SqlProviderAchieve) *PositionStoreImpl {
	repo := &PositionStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROJECT_POSITION)
	repo.SetAllColumns("id", "project_id", "title", "status", "created_at")
	return repo
}

type PositionStoreImpl struct {
	CommonFields
}

func (s *PositionStoreImpl) Create(ctx context.Context, data types.Position) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.Status == "" {
		data.Status = types.POSITION_STATUS_OPEN
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.Title, data.Status, data.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *PositionStoreImpl) GetPosition(ctx context.Context, projectID, positionID string) (*types.Position, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "id": positionID})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.Position
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *PositionStoreImpl) UpdateStatus(ctx context.Context, projectID, positionID string, status types.PositionStatus) error {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Where(sq.Eq{"project_id": projectID, "id": positionID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *PositionStoreImpl) ListPositions(ctx context.Context, projectID string, status types.PositionStatus) ([]types.Position, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("created_at ASC")

	if status != "" {
		query = query.Where(sq.Eq{"status": status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.Position
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *PositionStoreImpl) Delete(ctx context.Context, projectID, positionID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": positionID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}
