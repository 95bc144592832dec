package events

// ProfileChange profile-sync 队列消息，字段为 nil 表示未修改而非清空
type ProfileChange struct {
	UserID uint64  `json:"userId" validate:"required"`
	Name   *string `json:"name,omitempty"`
	Photo  *string `json:"photo,omitempty"`
}

// Empty 没有任何需要同步的字段
func (p ProfileChange) Empty() bool {
	return p.Name == nil && p.Photo == nil
}

func EncodeProfileChange(p ProfileChange) ([]byte, error) {
	return encode(p)
}

func ParseProfileChange(body []byte) (ProfileChange, error) {
	var p ProfileChange
	err := decode(body, &p)
	return p, err
}
