package handler

import (
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/response"
	"Lumen/internal/service"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentSvc service.ContentService
	likeSvc    service.LikeService
}

func NewContentHandler(contentSvc service.ContentService, likeSvc service.LikeService) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc, likeSvc: likeSvc}
}

// CreateContent POST /contents
func (s *ContentHandler) CreateContent(c *gin.Context) {
	var req dto.CreateContentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	content, err := s.contentSvc.CreateContent(c.Request.Context(), c.GetUint64("user_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, content)
}

// DeleteContent DELETE /contents/:content_id
func (s *ContentHandler) DeleteContent(c *gin.Context) {
	err := s.contentSvc.DeleteContent(c.Request.Context(), c.GetUint64("user_id"), c.Param("content_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetContent GET /contents/:content_id
func (s *ContentHandler) GetContent(c *gin.Context) {
	content, err := s.contentSvc.GetContent(c.Request.Context(), c.GetUint64("user_id"), c.Param("content_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, content)
}

// ListByAuthor GET /users/:user_id/contents
func (s *ContentHandler) ListByAuthor(c *gin.Context) {
	authorID, err := pathUserID(c, "user_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, pageSize := getPagination(c)

	list, err := s.contentSvc.ListByAuthor(c.Request.Context(), c.GetUint64("user_id"), authorID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListFeed GET /contents/feed
func (s *ContentHandler) ListFeed(c *gin.Context) {
	page, pageSize := getPagination(c)

	feed, err := s.contentSvc.ListFeed(c.Request.Context(), c.GetUint64("user_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}

// ToggleLike POST /contents/:content_id/like
func (s *ContentHandler) ToggleLike(c *gin.Context) {
	result, err := s.likeSvc.ToggleLike(c.Request.Context(), c.GetUint64("user_id"), c.Param("content_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
