package handler

import (
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/response"
	"Lumen/internal/pkg/util"
	"Lumen/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetUserInfo GET /users/:user_id
func (s *UserHandler) GetUserInfo(c *gin.Context) {
	userID, err := pathUserID(c, "user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := s.userSvc.GetUserSimpleInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GetMe GET /users/me
func (s *UserHandler) GetMe(c *gin.Context) {
	user, err := s.userSvc.GetUserSimpleInfo(c.Request.Context(), c.GetUint64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile PATCH /users/me
func (s *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	user, err := s.userSvc.UpdateProfile(c.Request.Context(), c.GetUint64("user_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
