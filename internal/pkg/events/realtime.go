package events

import (
	"strconv"

	"github.com/goccy/go-json"
)

// 实时事件名称
const (
	RealtimeNewPost     = "new_post"
	RealtimeDeletePost  = "delete_post"
	RealtimePostLiked   = "post_liked"
	RealtimeNewFollower = "new_follower"
	RealtimeNewComment  = "new_comment"
)

// RealtimeEvent realtime-events 队列消息，RoomID 为空时广播
type RealtimeEvent struct {
	Event  string          `json:"event" validate:"required"`
	Data   json.RawMessage `json:"data,omitempty"`
	RoomID string          `json:"roomId,omitempty"`
}

// NewRealtimeEvent 构造实时事件，room 为空表示广播
func NewRealtimeEvent(event string, data any, room string) (RealtimeEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return RealtimeEvent{}, err
	}
	return RealtimeEvent{Event: event, Data: raw, RoomID: room}, nil
}

// UserRoom 用户的私有房间 id
func UserRoom(userID uint64) string {
	return strconv.FormatUint(userID, 10)
}

func EncodeRealtimeEvent(e RealtimeEvent) ([]byte, error) {
	return encode(e)
}

func ParseRealtimeEvent(body []byte) (RealtimeEvent, error) {
	var e RealtimeEvent
	err := decode(body, &e)
	return e, err
}
