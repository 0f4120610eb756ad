package v1

import (
	"context"

	"github.com/crewhub/crewhub/app/core"
	"github.com/crewhub/crewhub/pkg/errors"
	"github.com/crewhub/crewhub/pkg/i18n"
	"github.com/crewhub/crewhub/pkg/types"
)

type NotificationLogic struct {
	UserInfo
	ctx  context.Context
	core *core.Core
}

func NewNotificationLogic(ctx context.Context, core *core.Core) *NotificationLogic {
	return &NotificationLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

// ListNotifications 当前用户收到的通知，可按状态过滤
func (l *NotificationLogic) ListNotifications(status types.NotificationStatus, page, pageSize uint64) ([]types.Notification, int64, error) {
	opts := types.ListNotificationOptions{
		RecipientID: l.GetUserInfo().User,
		Status:      status,
	}

	list, err := l.core.Store().NotificationStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("NotificationLogic.ListNotifications.NotificationStore.List", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().NotificationStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("NotificationLogic.ListNotifications.NotificationStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}
