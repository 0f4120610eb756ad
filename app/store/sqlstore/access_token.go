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
		provider.stores.AccessTokenStore = NewAccessTokenStore(provider)
	})
}

func NewAccessTokenStore(provider SqlProviderAchieve) *AccessTokenStoreImpl {
	repo := &AccessTokenStoreImpl{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ACCESS_TOKEN)
	repo.SetAllColumns("id", "user_id", "token", "version", "info", "expires_at", "created_at")
	return repo
}

type AccessTokenStoreImpl struct {
	CommonFields
}

func (s *AccessTokenStoreImpl) Create(ctx context.Context, data types.AccessToken) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("user_id", "token", "version", "info", "expires_at", "created_at").
		Values(data.UserID, data.Token, data.Version, data.Info, data.ExpiresAt, data.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *AccessTokenStoreImpl) GetAccessToken(ctx context.Context, token string) (*types.AccessToken, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"token": token})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data types.AccessToken
	if err = s.GetReplica(ctx).Get(&data, sql, args...); err != nil {
		return nil, err
	}

	return &data, nil
}

func (s *AccessTokenStoreImpl) Delete(ctx context.Context, userID string, id int64) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"user_id": userID, "id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *AccessTokenStoreImpl) ClearUserTokens(ctx context.Context, userID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"user_id": userID})

	sql, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(sql, args...)
	return err
}

func (s *AccessTokenStoreImpl) ListAccessTokens(ctx context.Context, userID string, page, pageSize uint64) ([]types.AccessToken, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id DESC")

	if page != types.NO_PAGINATION || pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var data []types.AccessToken
	if err = s.GetReplica(ctx).Select(&data, sql, args...); err != nil {
		return nil, err
	}

	return data, nil
}
