package util

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
)

var ErrMediaRefNotAllowed = errors.New("media ref not allowed")

// MediaRefPolicy 允许的媒体来源：对象存储桶与公开媒体域名
type MediaRefPolicy struct {
	Buckets []string
	Hosts   []string
}

var mediaRefPolicy atomic.Pointer[MediaRefPolicy]

// SetMediaRefPolicy 启动时由配置设置，未设置时拒绝所有媒体地址
func SetMediaRefPolicy(p MediaRefPolicy) {
	mediaRefPolicy.Store(&p)
}

func CurrentMediaRefPolicy() MediaRefPolicy {
	if p := mediaRefPolicy.Load(); p != nil {
		return *p
	}
	return MediaRefPolicy{}
}

// Check 只接受 minio://<桶>/<key> 与白名单域名下的 http(s) 地址
func (p MediaRefPolicy) Check(ref string) error {
	u, err := url.Parse(ref)
	if err != nil || u.User != nil {
		return ErrMediaRefNotAllowed
	}

	switch u.Scheme {
	case "minio", "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" || strings.Contains(key, "..") || !slices.Contains(p.Buckets, u.Host) {
			return ErrMediaRefNotAllowed
		}
		return nil
	case "http", "https":
		host := strings.ToLower(u.Host)
		for _, allowed := range p.Hosts {
			allowed = strings.ToLower(allowed)
			if allowed != "" && (host == allowed || strings.ToLower(u.Hostname()) == allowed) {
				return nil
			}
		}
		return ErrMediaRefNotAllowed
	default:
		return ErrMediaRefNotAllowed
	}
}
