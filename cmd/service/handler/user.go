package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/pkg/utils"
)

type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	PublicRole string `json:"public_role"`
}

func (s *HttpSrv) Register(c *gin.Context) {
	var req RegisterRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	userID, err := v1.NewUserLogic(c, s.Core).Register(req.Name, req.Email, req.Password, req.PublicRole)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"user_id": userID,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *HttpSrv) Login(c *gin.Context) {
	var req LoginRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	token, err := v1.NewUserLogic(c, s.Core).Login(req.Email, req.Password)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, gin.H{
		"access_token": token,
	})
}

func (s *HttpSrv) GetUser(c *gin.Context) {
	claims, _ := v1.InjectTokenClaim(c)
	user, err := v1.NewUserLogic(c, s.Core).GetUser(claims.User)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, user)
}

type UpdateUserProfileRequest struct {
	UserName   string `json:"user_name"`
	Email      string `json:"email" binding:"omitempty,email"`
	Avatar     string `json:"avatar"`
	PublicRole string `json:"public_role"`
}

func (s *HttpSrv) UpdateUserProfile(c *gin.Context) {
	var req UpdateUserProfileRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	err := v1.NewAuthedUserLogic(c, s.Core).UpdateUserProfile(req.UserName, req.Email, req.Avatar, req.PublicRole)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, nil)
}
