package security

import (
	"time"
)

const (
	ROLE_KEY = "role"
)

// TokenClaims is the authenticated identity carried through request
// contexts after the authorization middleware has run.
type TokenClaims struct {
	AppName    string            `json:"an"`
	User       string            `json:"u"` // platform user id
	Fields     map[string]string `json:"f"` // unsafe, request-scoped extras
	ExpireTime int64             `json:"exp"`
	NotBefore  int64             `json:"nbf"`
}

func NewTokenClaims(appName, userID string, expireTime int64) TokenClaims {
	return TokenClaims{
		AppName:    appName,
		User:       userID,
		Fields:     map[string]string{},
		ExpireTime: expireTime,
		NotBefore:  time.Now().Unix() - 1,
	}
}

func (t TokenClaims) GetUser() string {
	return t.User
}

func (t TokenClaims) GetRole() string {
	return t.Field(ROLE_KEY)
}

func (t TokenClaims) Field(key string) string {
	if t.Fields == nil {
		return ""
	}
	return t.Fields[key]
}
