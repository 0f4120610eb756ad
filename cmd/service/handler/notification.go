package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

type ListNotificationsRequest struct {
	Status   string `form:"status" json:"status" binding:"omitempty,oneof=pending info accepted declined cancelled"`
	Page     uint64 `form:"page" json:"page" binding:"required"`
	PageSize uint64 `form:"pagesize" json:"pagesize" binding:"required,lte=50"`
}

func (s *HttpSrv) ListNotifications(c *gin.Context) {
	var req ListNotificationsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewNotificationLogic(c, s.Core).ListNotifications(
		types.NotificationStatus(req.Status), req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}
