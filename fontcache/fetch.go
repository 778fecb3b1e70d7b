package fontcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ByLCY/platecut/fonts"
)

// RetryPolicy 控制远程字体下载的有限重试（指数退避，带上限）。
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy 最多重试 3 次，间隔 200ms 起、最长 2s。
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}

func (p RetryPolicy) backoff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0 // 由 MaxRetries 限制次数
	return backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
}

// maxFontBytes 限制单个字体文件的大小。
const maxFontBytes = 32 << 20

type fetcher struct {
	client  *http.Client
	baseDir string
	retry   RetryPolicy
	log     *slog.Logger
}

// fetch 按来源读取字体字节；重复调用结果一致。
func (f *fetcher) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "built-in:"):
		return fonts.Load(src)
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, src)
	default:
		path := src
		if !filepath.IsAbs(path) {
			if f.baseDir == "" {
				return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin: 或 URL）", src)
			}
			path = filepath.Join(f.baseDir, path)
		}
		return os.ReadFile(path)
	}
}

func (f *fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			f.log.Debug("fontcache.fetch.retry", "url", url, "attempt", attempt, "err", err)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			f.log.Debug("fontcache.fetch.retry", "url", url, "attempt", attempt, "status", resp.StatusCode)
			return fmt.Errorf("下载字体 %s 失败: HTTP %d", url, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("下载字体 %s 失败: HTTP %d", url, resp.StatusCode))
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
		if err != nil {
			return fmt.Errorf("读取字体 %s 响应失败: %w", url, err)
		}
		data = b
		return nil
	}
	if err := backoff.Retry(op, f.retry.backoff(ctx)); err != nil {
		return nil, err
	}
	return data, nil
}
