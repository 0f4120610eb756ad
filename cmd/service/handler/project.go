package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/pkg/types"
	"github.com/crewhub/crewhub/pkg/utils"
)

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=64"`
	Description string `json:"description" binding:"max=512"`
}

func (s *HttpSrv) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, err := v1.NewProjectLogic(c, s.Core).CreateProject(req.Title, req.Description)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"project_id": projectID,
	})
}

func (s *HttpSrv) GetProject(c *gin.Context) {
	projectID, _ := v1.InjectProjectID(c)
	project, err := v1.NewProjectLogic(c, s.Core).GetProject(projectID)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, project)
}

type ListMembersRequest struct {
	Page     uint64 `form:"page" json:"page" binding:"required"`
	PageSize uint64 `form:"pagesize" json:"pagesize" binding:"required,lte=50"`
}

func (s *HttpSrv) ListProjectMembers(c *gin.Context) {
	var req ListMembersRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := v1.InjectProjectID(c)
	list, total, err := v1.NewProjectLogic(c, s.Core).ListMembers(projectID, req.Page, req.PageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

type CreatePositionRequest struct {
	Title string `json:"title" binding:"required,max=64"`
}

func (s *HttpSrv) CreatePosition(c *gin.Context) {
	var req CreatePositionRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := v1.InjectProjectID(c)
	positionID, err := v1.NewProjectLogic(c, s.Core).CreatePosition(projectID, req.Title)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"position_id": positionID,
	})
}

type ListPositionsRequest struct {
	Status string `form:"status" json:"status"`
}

func (s *HttpSrv) ListPositions(c *gin.Context) {
	var req ListPositionsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	projectID, _ := v1.InjectProjectID(c)
	list, err := v1.NewProjectLogic(c, s.Core).ListPositions(projectID, types.PositionStatus(req.Status))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}
