package media

import (
	"bytes"
	"image"
	// 注册解码器
	_ "image/gif"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

// PrepareImage 解码并等比缩放到 maxSide 以内，统一编码为 JPEG
func PrepareImage(data []byte, maxSide int) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	b := img.Bounds()
	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		img = imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}

// IsImage 判断 mime 是否为图片
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
