package events

import "fmt"

// MediaEvent media-tagging 队列消息，MediaBytes 与 MediaRef 二选一
type MediaEvent struct {
	ContentID  string `json:"contentId" validate:"required"`
	MediaRef   string `json:"mediaRef,omitempty"`
	MediaBytes []byte `json:"mediaBytes,omitempty"`
	MimeType   string `json:"mimeType" validate:"required"`
}

func EncodeMediaEvent(e MediaEvent) ([]byte, error) {
	return encode(e)
}

func ParseMediaEvent(body []byte) (MediaEvent, error) {
	var e MediaEvent
	if err := decode(body, &e); err != nil {
		return e, err
	}
	if e.MediaRef == "" && len(e.MediaBytes) == 0 {
		return e, fmt.Errorf("%w: media event without mediaRef or mediaBytes", ErrMalformed)
	}
	return e, nil
}
