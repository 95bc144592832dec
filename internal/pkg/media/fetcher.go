package media

import (
	"Lumen/internal/pkg/minio"
	"Lumen/internal/pkg/util"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var ErrUnsupportedRef = errors.New("unsupported media ref")

// Fetcher 将 mediaRef 解析为原始字节
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (data []byte, mimeType string, err error)
}

// ObjectGetter 对象存储读取函数，默认为 minio.GetObject
type ObjectGetter func(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, string, error)

type FetcherImpl struct {
	httpClient *resty.Client
	getObject  ObjectGetter
	maxBytes   int64
	policy     util.MediaRefPolicy
}

// NewFetcher 支持 minio://bucket/key 与 http(s)://，来源需在 policy 白名单内
func NewFetcher(timeout time.Duration, maxBytes int64, getObject ObjectGetter, policy util.MediaRefPolicy) Fetcher {
	if getObject == nil {
		getObject = minio.GetObject
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRedirectPolicy(resty.DomainCheckRedirectPolicy(redirectHosts(policy.Hosts)...)).
		SetDoNotParseResponse(true)

	return &FetcherImpl{
		httpClient: client,
		getObject:  getObject,
		maxBytes:   maxBytes,
		policy:     policy,
	}
}

// redirectHosts 重定向只按主机名比对，去掉端口
func redirectHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		}
		out = append(out, h)
	}
	return out
}

func (s *FetcherImpl) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if err := s.policy.Check(ref); err != nil {
		return nil, "", errors.Wrapf(ErrUnsupportedRef, "%s", ref)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUnsupportedRef, "%s", ref)
	}

	switch u.Scheme {
	case "minio", "s3":
		return s.getObject(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), s.maxBytes)
	case "http", "https":
		return s.fetchHTTP(ctx, ref)
	default:
		return nil, "", errors.Wrapf(ErrUnsupportedRef, "%s", ref)
	}
}

func (s *FetcherImpl) fetchHTTP(ctx context.Context, ref string) ([]byte, string, error) {
	resp, err := s.httpClient.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetch media")
	}
	body := resp.RawBody()
	defer func() {
		_ = body.Close()
	}()

	if resp.StatusCode() >= 300 {
		return nil, "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode())
	}

	data, err := s.readLimited(body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header().Get("Content-Type"), nil
}

func (s *FetcherImpl) readLimited(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", s.maxBytes)
	}
	return data, nil
}
