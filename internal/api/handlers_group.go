package api

import "Lumen/internal/api/handler"

type HandlersGroup struct {
	FollowHandler    *handler.FollowHandler
	UserHandler      *handler.UserHandler
	ContentHandler   *handler.ContentHandler
	CommentHandler   *handler.CommentHandler
	RecommendHandler *handler.RecommendHandler
}
