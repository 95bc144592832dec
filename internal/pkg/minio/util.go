package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// GetObject 读取对象内容，超过 maxBytes 时报错 (maxBytes <= 0 不限制)
func GetObject(ctx context.Context, bucket, objectName string, maxBytes int64) ([]byte, string, error) {
	if Client == nil {
		return nil, "", fmt.Errorf("minio client is not initialized")
	}
	if bucket == "" {
		bucket = MainBucket
	}

	obj, err := Client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}
	defer func() {
		_ = obj.Close()
	}()

	info, err := obj.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat object: %w", err)
	}
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, "", fmt.Errorf("object %s too large: %d bytes", objectName, info.Size)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object: %w", err)
	}
	return data, info.ContentType, nil
}
