package events

import (
	"fmt"
	"strconv"
)

type InteractionType string

const (
	InteractionLike   InteractionType = "LIKE"
	InteractionFollow InteractionType = "FOLLOW"
)

// Action 已解析的动作，队列中不允许出现 toggle
type Action string

const (
	ActionLike     Action = "LIKE"
	ActionUnlike   Action = "UNLIKE"
	ActionFollow   Action = "FOLLOW"
	ActionUnfollow Action = "UNFOLLOW"
)

// InteractionMessage interactions 队列的线上格式
type InteractionMessage struct {
	Type     InteractionType `json:"type" validate:"required,oneof=LIKE FOLLOW"`
	UserID   uint64          `json:"userId" validate:"required"`
	TargetID string          `json:"targetId" validate:"required"`
	Action   Action          `json:"action" validate:"required,oneof=LIKE UNLIKE FOLLOW UNFOLLOW"`
}

// Interaction 交互事件，只有 LikeEvent 与 FollowEvent 两种
type Interaction interface {
	Message() InteractionMessage
	isInteraction()
}

// LikeEvent 用户对内容的点赞 / 取消点赞
type LikeEvent struct {
	UserID    uint64
	ContentID string
	Liked     bool
}

// FollowEvent 用户之间的关注 / 取关
type FollowEvent struct {
	FollowerID uint64
	FollowedID uint64
	Following  bool
}

func NewLikeEvent(userID uint64, contentID string, liked bool) LikeEvent {
	return LikeEvent{UserID: userID, ContentID: contentID, Liked: liked}
}

func NewFollowEvent(followerID, followedID uint64, following bool) FollowEvent {
	return FollowEvent{FollowerID: followerID, FollowedID: followedID, Following: following}
}

func (LikeEvent) isInteraction()   {}
func (FollowEvent) isInteraction() {}

func (e LikeEvent) Message() InteractionMessage {
	action := ActionUnlike
	if e.Liked {
		action = ActionLike
	}
	return InteractionMessage{Type: InteractionLike, UserID: e.UserID, TargetID: e.ContentID, Action: action}
}

func (e FollowEvent) Message() InteractionMessage {
	action := ActionUnfollow
	if e.Following {
		action = ActionFollow
	}
	return InteractionMessage{
		Type:     InteractionFollow,
		UserID:   e.FollowerID,
		TargetID: strconv.FormatUint(e.FollowedID, 10),
		Action:   action,
	}
}

// EncodeInteraction 序列化交互事件
func EncodeInteraction(e Interaction) ([]byte, error) {
	return encode(e.Message())
}

// ParseInteraction 解析并校验交互事件，type 与 action 必须匹配
func ParseInteraction(body []byte) (Interaction, error) {
	var msg InteractionMessage
	if err := decode(body, &msg); err != nil {
		return nil, err
	}

	switch msg.Type {
	case InteractionLike:
		if msg.Action != ActionLike && msg.Action != ActionUnlike {
			return nil, fmt.Errorf("%w: action %s not valid for %s", ErrMalformed, msg.Action, msg.Type)
		}
		return NewLikeEvent(msg.UserID, msg.TargetID, msg.Action == ActionLike), nil
	case InteractionFollow:
		if msg.Action != ActionFollow && msg.Action != ActionUnfollow {
			return nil, fmt.Errorf("%w: action %s not valid for %s", ErrMalformed, msg.Action, msg.Type)
		}
		followedID, err := strconv.ParseUint(msg.TargetID, 10, 64)
		if err != nil || followedID == 0 {
			return nil, fmt.Errorf("%w: invalid follow target %q", ErrMalformed, msg.TargetID)
		}
		if followedID == msg.UserID {
			return nil, fmt.Errorf("%w: self follow", ErrMalformed)
		}
		return NewFollowEvent(msg.UserID, followedID, msg.Action == ActionFollow), nil
	}
	return nil, fmt.Errorf("%w: unknown type %s", ErrMalformed, msg.Type)
}
