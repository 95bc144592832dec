package handler

import (
	"Lumen/internal/api/dto"
	"Lumen/internal/pkg/response"
	"Lumen/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentSvc service.CommentService
}

func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

// CreateComment POST /contents/:content_id/comments
func (s *CommentHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	comment, err := s.commentSvc.CreateComment(c.Request.Context(), c.GetUint64("user_id"), c.Param("content_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

// ListComments GET /contents/:content_id/comments
func (s *CommentHandler) ListComments(c *gin.Context) {
	page, pageSize := getPagination(c)
	list, err := s.commentSvc.ListComments(c.Request.Context(), c.Param("content_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
