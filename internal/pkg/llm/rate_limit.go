package llm

import (
	"golang.org/x/sync/semaphore"
)

var (
	// ImageWeight 每个进程同一时刻只做一次图片推理
	ImageWeight = int64(1)
	ImageSem    = semaphore.NewWeighted(ImageWeight)
)
