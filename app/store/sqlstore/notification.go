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
		provider.stores.NotificationStore = NewNotificationStore(provider)
	})
}

func NewNotificationStore(provider SqlProviderAchieve) *NotificationStoreImpl {
	repo := &NotificationStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_NOTIFICATION)
	repo.SetAllColumns(
		"id", "recipient_id", "sender_id", "kind", "reference_id", "status", "created_at", "updated_at",
	)
	return repo
}

type NotificationStoreImpl struct {
	CommonFields
}

func (s *NotificationStoreImpl) Create(ctx context.Context, data types.Notification) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.RecipientID, data.SenderID, data.Kind, data.ReferenceID, data.Status, data.CreatedAt, data.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *NotificationStoreImpl) GetNotification(ctx context.Context, id string) (*types.Notification, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.Notification
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *NotificationStoreImpl) UpdateStatusByRef(ctx context.Context, referenceID string, kinds []types.NotificationKind, fromStatus, toStatus types.NotificationStatus) error {
	query := sq.Update(s.GetTable()).
		Set("status", toStatus).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"reference_id": referenceID, "status": fromStatus})

	if len(kinds) > 0 {
		query = query.Where(sq.Eq{"kind": kinds})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *NotificationStoreImpl) CancelPendingBySender(ctx context.Context, referenceID, senderID string) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.NOTIFICATION_STATUS_CANCELLED).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"reference_id": referenceID, "sender_id": senderID, "status": types.NOTIFICATION_STATUS_PENDING})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *NotificationStoreImpl) List(ctx context.Context, opts types.ListNotificationOptions, page, pageSize uint64) ([]types.Notification, error) {
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

	var data []types.Notification
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *NotificationStoreImpl) Total(ctx context.Context, opts types.ListNotificationOptions) (int64, error) {
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

func (s *NotificationStoreImpl) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}
