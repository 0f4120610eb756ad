package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/crewhub/crewhub/app/core"
	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/pkg/auth"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/security"
	"github.com/crewhub/crewhub/pkg/types"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		lang := ctx.Request.Header.Get("Accept-Language")
		ctx.Set(v1.LANGUAGE_KEY, lo.If(strings.Contains(lang, "zh"), types.LANGUAGE_CN_KEY).Else(types.LANGUAGE_EN_KEY))
	}
}

const AUTH_TOKEN_HEADER_KEY = "X-Authorization"

func Authorization(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue := c.GetHeader(AUTH_TOKEN_HEADER_KEY)
		if tokenValue == "" {
			response.APIError(c, errors.New("middleware.Authorization.nil", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		passed, err := ParseAuthToken(c, tokenValue, core)
		if err != nil {
			response.APIError(c, errors.Trace("middleware.Authorization", err))
			return
		}
		if !passed {
			response.APIError(c, errors.New("middleware.Authorization", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
		}
	}
}

func ParseAuthToken(c *gin.Context, tokenValue string, core *core.Core) (bool, error) {
	if tokenValue == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	tokenMeta, err := auth.ValidateTokenFromCache(ctx, tokenValue, core.Cache())
	if err != nil {
		// 缓存未命中或服务未部署缓存时回源数据库
		tokenMeta, err = validateTokenFromStore(ctx, tokenValue, core)
		if err != nil {
			return false, err
		}
	}

	c.Set(v1.TOKEN_CONTEXT_KEY, security.NewTokenClaims("crewhub", tokenMeta.UserID, tokenMeta.ExpireAt))
	c.Set("user", tokenMeta.UserID)

	// 活跃用户滑动续期
	core.Cache().Expire(ctx, auth.TokenCacheKey(tokenValue), time.Hour*24*7)
	return true, nil
}

func validateTokenFromStore(ctx context.Context, tokenValue string, core *core.Core) (*types.UserTokenMeta, error) {
	token, err := core.Store().AccessTokenStore().GetAccessToken(ctx, tokenValue)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("middleware.validateTokenFromStore.GetAccessToken", i18n.ERROR_INTERNAL, err)
	}
	if token == nil || token.ExpiresAt < time.Now().Unix() {
		return nil, errors.New("middleware.validateTokenFromStore.check", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	meta := types.UserTokenMeta{
		UserID:   token.UserID,
		ExpireAt: token.ExpiresAt,
	}
	if err = auth.StoreTokenToCache(ctx, tokenValue, meta, core.Cache(), time.Until(time.Unix(token.ExpiresAt, 0))); err != nil {
		return &meta, nil
	}
	return &meta, nil
}

// VerifyProjectPermission 校验当前用户在项目内是否具备某权限，通过后注入项目ID
func VerifyProjectPermission(core *core.Core, permission string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		projectID, _ := ctx.Params.Get("projectid")

		claims, _ := v1.InjectTokenClaim(ctx)

		member, err := core.Store().TeamMemberStore().GetMember(ctx, projectID, claims.User)
		if err != nil && err != sql.ErrNoRows {
			response.APIError(ctx, errors.New("middleware.VerifyProjectPermission.GetMember", i18n.ERROR_INTERNAL, err))
			return
		}
		if member == nil || !member.IsActive {
			response.APIError(ctx, errors.New("middleware.VerifyProjectPermission.GetMember.nil", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden))
			return
		}

		role, err := core.Store().ProjectRoleStore().GetRole(ctx, projectID, member.RoleID)
		if err != nil && err != sql.ErrNoRows {
			response.APIError(ctx, errors.New("middleware.VerifyProjectPermission.GetRole", i18n.ERROR_INTERNAL, err))
			return
		}
		if role == nil || !core.Srv().RBAC().CheckPermission(role.Preset, permission) {
			response.APIError(ctx, errors.New("middleware.VerifyProjectPermission.CheckPermission", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden))
			return
		}

		claims.Fields[security.ROLE_KEY] = role.Preset

		ctx.Set(v1.PROJECTID_CONTEXT_KEY, projectID)
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(genKeyFunc(c), opts...).Allow() {
			appCore.Metrics().ApiErrorInc(c.Request.Method, operation, http.StatusTooManyRequests)
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}
