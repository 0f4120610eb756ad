package types

type AccessToken struct {
	ID        int64  `json:"id" db:"id"`           // 自增主键
	UserID    string `json:"user_id" db:"user_id"` // 用户ID
	Token     string `json:"token" db:"token"`
	Version   string `json:"version" db:"version"`
	Info      string `json:"info" db:"info"` // 令牌用途描述
	ExpiresAt int64  `json:"expires_at" db:"expires_at"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}
