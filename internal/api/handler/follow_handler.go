package handler

import (
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/response"
	"Lumen/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	followSvc service.FollowService
}

func NewFollowHandler(followSvc service.FollowService) *FollowHandler {
	return &FollowHandler{followSvc: followSvc}
}

// GetFollowStatus GET /users/:user_id/follow，未登录时 following 恒为 false
func (s *FollowHandler) GetFollowStatus(c *gin.Context) {
	viewerID := c.GetUint64("user_id")
	targetID, err := pathUserID(c, "user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := s.followSvc.GetFollowStatus(c.Request.Context(), viewerID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// ToggleFollow POST /users/:user_id/follow
func (s *FollowHandler) ToggleFollow(c *gin.Context) {
	followerID := c.GetUint64("user_id")
	targetID, err := pathUserID(c, "user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.followSvc.ToggleFollow(c.Request.Context(), followerID, targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListFollowing GET /users/:user_id/following
func (s *FollowHandler) ListFollowing(c *gin.Context) {
	userID, err := pathUserID(c, "user_id")
	if err != nil {
		response.Error(c, err)
		return
	}

	ids, err := s.followSvc.ListFollowing(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.FollowingListDTO{UserIDs: ids})
}
