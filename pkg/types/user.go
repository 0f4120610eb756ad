package types

import sq "github.com/Masterminds/squirrel"

type User struct {
	ID     string `json:"id" db:"id"`         // 用户ID，主键
	Name   string `json:"name" db:"name"`     // 用户名
	Email  string `json:"email" db:"email"`   // 用户邮箱，唯一约束
	Avatar string `json:"avatar" db:"avatar"` // 用户头像URL
	// PublicRole 用户对外公开的职业角色，展示角色解析的第二优先级来源
	PublicRole string `json:"public_role" db:"public_role"`
	Salt       string `json:"-" db:"salt"`
	Password   string `json:"-" db:"password"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at"`
}

type ListUserOptions struct {
	IDs      []string
	Email    string
	Keywords string
}

func (opts ListUserOptions) Apply(query *sq.SelectBuilder) {
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.Email != "" {
		*query = query.Where(sq.Eq{"email": opts.Email})
	}
	if opts.Keywords != "" {
		*query = query.Where(sq.Or{sq.Eq{"id": opts.Keywords}, sq.Like{"name": "%" + opts.Keywords + "%"}, sq.Eq{"email": opts.Keywords}})
	}
}

// UserTokenMeta 登录令牌在缓存中的元信息
type UserTokenMeta struct {
	UserID   string `json:"user_id"`
	ExpireAt int64  `json:"expire_at"`
}
