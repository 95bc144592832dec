package handler

import (
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/response"
	"Lumen/internal/service"

	"github.com/gin-gonic/gin"
)

type RecommendHandler struct {
	recommendSvc service.RecommendService
}

func NewRecommendHandler(recommendSvc service.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommendSvc: recommendSvc}
}

// GetRecommendations GET /recommendations?page&pageSize&sessionId
func (s *RecommendHandler) GetRecommendations(c *gin.Context) {
	var q dto.RecommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	page, err := s.recommendSvc.GetRecommendations(c.Request.Context(), c.GetUint64("user_id"), &q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// GetExplore GET /recommendations/explore
func (s *RecommendHandler) GetExplore(c *gin.Context) {
	var q dto.RecommendationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	page, err := s.recommendSvc.GetExplore(c.Request.Context(), c.GetUint64("user_id"), &q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}
