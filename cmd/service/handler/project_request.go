package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

type CreateInviteRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	RoleID     string `json:"role_id"`
	PositionID string `json:"position_id"`
}

func (s *HttpSrv) CreateInvite(c *gin.Context) {
	var req CreateInviteRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := c.Params.Get("projectid")
	result, err := v1.NewProjectRequestLogic(c, s.Core).CreateInvite(projectID, req.UserID, req.RoleID, req.PositionID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ApplyProjectRequest struct {
	PositionID string `json:"position_id"`
}

func (s *HttpSrv) ApplyProject(c *gin.Context) {
	var req ApplyProjectRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := c.Params.Get("projectid")
	result, err := v1.NewProjectRequestLogic(c, s.Core).Apply(projectID, req.PositionID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ManageRequestRequest struct {
	// RequestID 为空时处理发给当前用户的待处理邀请
	RequestID string `json:"request_id"`
	Action    string `json:"action" binding:"required,oneof=accept reject cancel resend reset"`
}

func (s *HttpSrv) ManageProjectRequest(c *gin.Context) {
	var req ManageRequestRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := c.Params.Get("projectid")
	result, err := v1.NewProjectRequestLogic(c, s.Core).ManageRequest(projectID, req.RequestID, req.Action)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, result)
}

type ListRequestsRequest struct {
	Direction string `form:"direction" json:"direction" binding:"required,oneof=invite application"`
	Status    string `form:"status" json:"status" binding:"omitempty,oneof=pending accepting accepted rejected cancelled"`
	Page      uint64 `form:"page" json:"page" binding:"required"`
	PageSize  uint64 `form:"pagesize" json:"pagesize" binding:"required,lte=50"`
}

func (s *HttpSrv) ListProjectRequests(c *gin.Context) {
	var req ListRequestsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := c.Params.Get("projectid")
	list, total, err := v1.NewProjectRequestLogic(c, s.Core).ListProjectRequests(projectID,
		types.RequestDirection(req.Direction), types.RequestStatus(req.Status), req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

func (s *HttpSrv) ListMyRequests(c *gin.Context) {
	var req ListRequestsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewProjectRequestLogic(c, s.Core).ListMyRequests(
		types.RequestDirection(req.Direction), types.RequestStatus(req.Status), req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}
