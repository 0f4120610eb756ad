package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

func TokenCacheKey(tokenValue string) string {
	return fmt.Sprintf("user:token:%s", utils.MD5(tokenValue))
}

// StoreTokenToCache 登录成功后缓存 token 元信息
func StoreTokenToCache(ctx context.Context, tokenValue string, meta types.UserTokenMeta, cache types.Cache, ttl time.Duration) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return errors.New("auth.StoreTokenToCache.marshal", i18n.ERROR_INTERNAL, err)
	}
	if err = cache.SetEx(ctx, TokenCacheKey(tokenValue), string(raw), ttl); err != nil {
		return errors.New("auth.StoreTokenToCache.cache_set", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// ValidateTokenFromCache 从缓存中验证 auth token
func ValidateTokenFromCache(ctx context.Context, tokenValue string, cache types.Cache) (*types.UserTokenMeta, error) {
	if tokenValue == "" {
		return nil, errors.New("auth.ValidateTokenFromCache.empty_token", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	tokenMetaStr, err := cache.Get(ctx, TokenCacheKey(tokenValue))
	if err != nil && err != redis.Nil {
		return nil, errors.New("auth.ValidateTokenFromCache.cache_get", i18n.ERROR_INTERNAL, err)
	}

	if tokenMetaStr == "" {
		return nil, errors.New("auth.ValidateTokenFromCache.token_not_found", i18n.ERROR_UNAUTHORIZED, fmt.Errorf("nil token")).Code(http.StatusUnauthorized)
	}

	var meta types.UserTokenMeta
	if err := json.Unmarshal([]byte(tokenMetaStr), &meta); err != nil {
		return nil, errors.New("auth.ValidateTokenFromCache.unmarshal", i18n.ERROR_INTERNAL, err).Code(http.StatusUnauthorized)
	}

	if meta.ExpireAt > 0 && meta.ExpireAt < time.Now().Unix() {
		return nil, errors.New("auth.ValidateTokenFromCache.expired", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	return &meta, nil
}
