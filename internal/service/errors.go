package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid        = errors.New("参数错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrUserFollowSelf      = errors.New("用户不能关注自己")
	ErrContentNotFound     = errors.New("内容不存在")
	ErrCommentNotFound     = errors.New("评论不存在")
	ErrProfileNoChange     = errors.New("没有需要修改的资料")
	ErrEventPublish        = errors.New("事件发布失败，请稍后重试")
	ErrRecommendSessionBad = errors.New("推荐会话参数错误")
	UnauthorizedError      = errors.New("权限不足")
	UnExpectedError        = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrUserNotFound:        NotFound,
	ErrUserFollowSelf:      BadRequest,
	ErrContentNotFound:     NotFound,
	ErrCommentNotFound:     NotFound,
	ErrProfileNoChange:     BadRequest,
	ErrEventPublish:        ServiceUnavailable,
	ErrRecommendSessionBad: BadRequest,
	UnauthorizedError:      Forbidden,
	UnExpectedError:        InternalServerError,
}

// CodeOf 返回错误对应的业务码，支持被包装的错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return 0, false
}
