package events

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ErrMalformed 消息无法解析或校验失败，属于永久性错误，不应重试
var ErrMalformed = errors.New("malformed event payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode 解析并校验消息体，所有错误都包装为 ErrMalformed
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
