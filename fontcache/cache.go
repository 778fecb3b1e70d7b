package fontcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ByLCY/platecut/design"
)

// Options 配置字体缓存。
type Options struct {
	Registry Registry      // 为空时使用 DefaultRegistry()
	Fallback string        // 为空时使用 FallbackFamily
	BaseDir  string        // 相对字体路径的根目录
	Client   *http.Client  // 为空时使用带超时的默认客户端
	Timeout  time.Duration // 默认客户端的超时，默认 30s
	Retry    *RetryPolicy  // 为空时使用 DefaultRetryPolicy
	Logger   *slog.Logger
}

// Cache 将字体族名解析为 Asset，可被多个导出操作并发共享。
// 写入（新解析的字体）是幂等且与顺序无关的；失败不会被缓存。
type Cache struct {
	registry Registry
	fallback string
	fetcher  *fetcher
	log      *slog.Logger

	mu     sync.RWMutex
	assets map[string]*Asset
	group  singleflight.Group
}

// New 创建字体缓存。
func New(opts Options) *Cache {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	fallback := opts.Fallback
	if fallback == "" {
		fallback = FallbackFamily
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	retry := DefaultRetryPolicy
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		registry: registry,
		fallback: fallback,
		fetcher:  &fetcher{client: client, baseDir: opts.BaseDir, retry: retry, log: log},
		log:      log,
		assets:   map[string]*Asset{},
	}
}

// Fallback 返回兜底字体族名。
func (c *Cache) Fallback() string { return c.fallback }

// Resolve 解析一个字体族。未注册、下载或解析失败时返回 ErrFontUnavailable。
// 同一族名的并发解析只会下载、解析一次。
func (c *Cache) Resolve(ctx context.Context, family string) (*Asset, error) {
	key := normalizeKey(family)
	if a := c.cached(key); a != nil {
		return a, nil
	}
	src, ok := c.registry.Lookup(family)
	if !ok {
		return nil, unavailable(family, fmt.Errorf("字体族未注册"))
	}

	// 共享的下载不随某一个调用方取消，只受客户端超时与重试次数约束；
	// 每个调用方只在自己的 ctx 上放弃等待。
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if a := c.cached(key); a != nil {
			return a, nil
		}
		start := time.Now()
		raw, err := c.fetcher.fetch(fetchCtx, src)
		if err != nil {
			return nil, err
		}
		a, err := parseAsset(family, raw)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.assets[key] = a
		c.mu.Unlock()
		c.log.Debug("fontcache.resolved", "family", family, "src", src, "bytes", len(a.Data), "elapsed", time.Since(start))
		return a, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, unavailable(family, ctx.Err())
	}
	if res.Err != nil {
		c.log.Warn("fontcache.unavailable", "family", family, "src", src, "err", res.Err)
		return nil, unavailable(family, res.Err)
	}
	if res.Shared {
		c.log.Debug("fontcache.shared", "family", family)
	}
	return res.Val.(*Asset), nil
}

func (c *Cache) cached(key string) *Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets[key]
}

func unavailable(family string, err error) error {
	return &design.OpError{
		Op:      "fontcache.resolve",
		Kind:    design.KindFontUnavailable,
		Subject: family,
		Err:     fmt.Errorf("%w: %w", design.ErrFontUnavailable, err),
	}
}

// FontIssue 记录一次可恢复的字体解析失败。
type FontIssue struct {
	Family     string `json:"family"`
	Substitute string `json:"substitute"`
	Err        error  `json:"-"`
}

func (i FontIssue) Error() string {
	return fmt.Sprintf("字体 %s 不可用，已替换为 %s: %v", i.Family, i.Substitute, i.Err)
}

func (i FontIssue) Unwrap() error { return i.Err }

// Set 是一次导出所需的全部字体。
type Set struct {
	Fallback *Asset
	byFamily map[string]*Asset
}

// Get 返回族名对应的字体；未知族名返回兜底字体。
func (s *Set) Get(family string) *Asset {
	if a, ok := s.byFamily[normalizeKey(family)]; ok {
		return a
	}
	return s.Fallback
}

// ResolveAll 并发解析所有族名并等待全部完成（汇合点）。
// 单个族名失败时替换为兜底字体并记录 FontIssue；兜底字体本身不可用时返回 ErrNoUsableFont。
func (c *Cache) ResolveAll(ctx context.Context, families []string) (*Set, []FontIssue, error) {
	unique := make([]string, 0, len(families))
	seen := map[string]bool{normalizeKey(c.fallback): true}
	for _, f := range families {
		k := normalizeKey(f)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, f)
	}

	var (
		fallback *Asset
		assets   = make([]*Asset, len(unique))
		errs     = make([]error, len(unique))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := c.Resolve(gctx, c.fallback)
		if err != nil {
			return &design.OpError{
				Op:      "fontcache.resolve_all",
				Kind:    design.KindNoUsableFont,
				Subject: c.fallback,
				Err:     fmt.Errorf("%w: %w", design.ErrNoUsableFont, err),
			}
		}
		fallback = a
		return nil
	})
	for i, family := range unique {
		g.Go(func() error {
			assets[i], errs[i] = c.Resolve(gctx, family)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	set := &Set{Fallback: fallback, byFamily: map[string]*Asset{normalizeKey(c.fallback): fallback}}
	var issues []FontIssue
	for i, family := range unique {
		if errs[i] != nil {
			issues = append(issues, FontIssue{Family: family, Substitute: c.fallback, Err: errs[i]})
			set.byFamily[normalizeKey(family)] = fallback
			continue
		}
		set.byFamily[normalizeKey(family)] = assets[i]
	}
	return set, issues, nil
}
