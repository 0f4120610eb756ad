package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/crewhub/crewhub/app/core"
	"github.com/crewhub/crewhub/pkg/auth"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

const accessTokenTTL = time.Hour * 24 * 30

// logic for unlogin
type UserLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewUserLogic(ctx context.Context, core *core.Core) *UserLogic {
	l := &UserLogic{
		ctx:  ctx,
		core: core,
	}

	return l
}

func (l *UserLogic) Register(name, email, password, publicRole string) (string, error) {
	exist, err := l.core.Store().UserStore().GetByEmail(l.ctx, email)
	if err != nil && err != sql.ErrNoRows {
		return "", errors.New("UserLogic.Register.UserStore.GetByEmail", i18n.ERROR_INTERNAL, err)
	}
	if exist != nil {
		return "", errors.New("UserLogic.Register.exist", i18n.ERROR_EMAIL_ALREADY_REGISTERED, nil).Code(http.StatusBadRequest)
	}

	salt := utils.RandomStr(10)
	userID := utils.GenUniqIDStr()

	err = l.core.Store().UserStore().Create(l.ctx, types.User{
		ID:         userID,
		Name:       name,
		Email:      email,
		PublicRole: publicRole,
		Salt:       salt,
		Password:   utils.GenUserPassword(salt, password),
		UpdatedAt:  time.Now().Unix(),
		CreatedAt:  time.Now().Unix(),
	})
	if err != nil {
		return "", errors.New("UserLogic.Register.UserStore.Create", i18n.ERROR_INTERNAL, err)
	}

	return userID, nil
}

func (l *UserLogic) Login(email, password string) (string, error) {
	user, err := l.core.Store().UserStore().GetByEmail(l.ctx, email)
	if err != nil && err != sql.ErrNoRows {
		return "", errors.New("UserLogic.Login.UserStore.GetByEmail", i18n.ERROR_INTERNAL, err)
	}

	if user == nil || user.Password != utils.GenUserPassword(user.Salt, password) {
		return "", errors.New("UserLogic.Login.Password.check", i18n.ERROR_INVALID_ACCOUNT, err).Code(http.StatusBadRequest)
	}

	accessToken := utils.MD5(user.ID + utils.GenRandomID())
	expiresAt := time.Now().Add(accessTokenTTL).Unix()
	err = l.core.Store().AccessTokenStore().Create(l.ctx, types.AccessToken{
		UserID:    user.ID,
		Token:     accessToken,
		Version:   types.DEFAULT_ACCESS_TOKEN_VERSION,
		Info:      "login",
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		return "", errors.New("UserLogic.Login.AccessTokenStore.Create", i18n.ERROR_INTERNAL, err)
	}

	// 缓存失败不阻断登录，后续校验会回源数据库
	if err = auth.StoreTokenToCache(l.ctx, accessToken, types.UserTokenMeta{
		UserID:   user.ID,
		ExpireAt: expiresAt,
	}, l.core.Cache(), accessTokenTTL); err != nil {
		return accessToken, nil
	}

	return accessToken, nil
}

type UserBaseInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
	PublicRole string `json:"public_role"`
	UpdatedAt  int64  `json:"updated_at"`
	CreatedAt  int64  `json:"created_at"`
}

func (l *UserLogic) GetUser(id string) (*UserBaseInfo, error) {
	user, err := l.core.Store().UserStore().GetUser(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("UserLogic.GetUser.UserStore.GetUser", i18n.ERROR_INTERNAL, err)
	}

	if user == nil {
		return nil, errors.New("UserLogic.GetUser.UserStore.GetUser.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}

	return &UserBaseInfo{
		ID:         user.ID,
		Name:       user.Name,
		Avatar:     user.Avatar,
		Email:      user.Email,
		PublicRole: user.PublicRole,
		UpdatedAt:  user.UpdatedAt,
		CreatedAt:  user.CreatedAt,
	}, nil
}

type AuthedUserLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewAuthedUserLogic(ctx context.Context, core *core.Core) *AuthedUserLogic {
	l := &AuthedUserLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}

	return l
}

func (l *AuthedUserLogic) UpdateUserProfile(userName, email, avatar, publicRole string) error {
	err := l.core.Store().UserStore().UpdateUserProfile(l.ctx, l.GetUserInfo().User, userName, email, avatar, publicRole)
	if err != nil {
		return errors.New("AuthedUserLogic.UpdateUserProfile.UserStore.UpdateUserProfile", i18n.ERROR_INTERNAL, err)
	}
	return nil
}
