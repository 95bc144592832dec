package util

import (
	"hash/fnv"
	"strconv"
)

// SessionSeed 由 userID 与 sessionID 生成稳定的随机种子，sessionID 为空时返回 0
func SessionSeed(userID uint64, sessionID string) uint64 {
	if sessionID == "" {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.FormatUint(userID, 10)))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(sessionID))
	return h.Sum64()
}
