package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/minio/sha256-simd"
	"golang.org/x/sync/singleflight"

	fetcherconfig "github.com/weisyn/coprocessor/internal/config/fetcher"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/coprocessor/pkg/types"
)

// cacheKeyPrefix 程序缓存键前缀，缓存内容按哈希寻址
const cacheKeyPrefix = "program:"

// Fetcher 程序拉取器
type Fetcher struct {
	options *fetcherconfig.FetcherOptions
	client  *http.Client
	cache   storage.ProgramCache
	logger  log.Logger

	group singleflight.Group
}

var _ coprocessor.Fetcher = (*Fetcher)(nil)

// New 创建拉取器
//
// cache 为 nil 时不缓存；client 为 nil 时使用默认 http.Client。
func New(options *fetcherconfig.FetcherOptions, cache storage.ProgramCache, client *http.Client, logger log.Logger) *Fetcher {
	if options == nil {
		options = fetcherconfig.New(nil).GetOptions()
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{options: options, client: client, cache: cache, logger: logger}
}

// Fetch 实现 coprocessor.Fetcher
//
// 同一 (location, expected) 的并发调用共享一次传输。传输在拉取超时下独立运行，
// 单个调用方取消只结束自己的等待。
func (f *Fetcher) Fetch(ctx context.Context, location string, expected types.ProgramHash) ([]byte, error) {
	tgt, err := parseLocation(location, f.options.IPFSGateway, f.options.AllowLocalPaths)
	if err != nil {
		fetchTotal.WithLabelValues("invalid", string(types.KindOf(err))).Inc()
		return nil, err
	}

	if data, ok := f.cached(ctx, expected); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	}
	if f.cache != nil {
		cacheLookups.WithLabelValues("miss").Inc()
	}

	key := location + "|" + expected.Hex()
	ch := f.group.DoChan(key, func() (interface{}, error) {
		return f.transfer(context.WithoutCancel(ctx), location, tgt, expected)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared && f.logger != nil {
			f.logger.Debugf("共享拉取结果: location=%s", location)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, WrapFetchError(location, ctx.Err())
	}
}

// Verify 实现 coprocessor.Fetcher
func (f *Fetcher) Verify(program []byte, expected types.ProgramHash) error {
	actual := Digest(program)
	if actual != expected {
		return WrapHashMismatchError(expected, actual)
	}
	return nil
}

// Digest 计算程序摘要
func Digest(program []byte) types.ProgramHash {
	return types.ProgramHash(sha256.Sum256(program))
}

// transfer 执行一次实际传输，摘要匹配时写入缓存
func (f *Fetcher) transfer(ctx context.Context, location string, tgt target, expected types.ProgramHash) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.options.Timeout)
	defer cancel()

	start := time.Now()
	var (
		data []byte
		err  error
	)
	switch tgt.scheme {
	case schemeHTTP, schemeIPFS:
		data, err = f.fetchHTTP(ctx, tgt.url)
	default:
		data, err = f.fetchFile(ctx, tgt.path)
	}
	fetchDuration.WithLabelValues(tgt.scheme).Observe(time.Since(start).Seconds())
	if err != nil {
		err = WrapFetchError(location, err)
		fetchTotal.WithLabelValues(tgt.scheme, string(types.KindOf(err))).Inc()
		if f.logger != nil {
			f.logger.Warnf("拉取程序失败: location=%s err=%v", location, err)
		}
		return nil, err
	}

	fetchTotal.WithLabelValues(tgt.scheme, "ok").Inc()
	fetchBytes.WithLabelValues(tgt.scheme).Add(float64(len(data)))
	if f.logger != nil {
		f.logger.Infof("拉取程序完成: location=%s size=%d elapsed=%s", location, len(data), time.Since(start))
	}

	if f.cache != nil && Digest(data) == expected {
		if err := f.cache.Set(ctx, cacheKeyPrefix+expected.Hex(), data); err != nil && f.logger != nil {
			f.logger.Warnf("写入程序缓存失败: hash=%s err=%v", expected, err)
		}
	}
	return data, nil
}

func (f *Fetcher) cached(ctx context.Context, hash types.ProgramHash) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}
	data, ok, err := f.cache.Get(ctx, cacheKeyPrefix+hash.Hex())
	if err != nil {
		if f.logger != nil {
			f.logger.Warnf("读取程序缓存失败: hash=%s err=%v", hash, err)
		}
		return nil, false
	}
	return data, ok
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.options.MaxProgramSize {
		return nil, fmt.Errorf("%w: content-length %d > %d", ErrProgramTooLarge, resp.ContentLength, f.options.MaxProgramSize)
	}
	return f.readBounded(resp.Body)
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > f.options.MaxProgramSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrProgramTooLarge, info.Size(), f.options.MaxProgramSize)
	}
	return f.readBounded(file)
}

// readBounded 读取至多 MaxProgramSize 字节，超出即失败
func (f *Fetcher) readBounded(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, f.options.MaxProgramSize+1))
	if err != nil {
		return nil, err
	}
	if n > f.options.MaxProgramSize {
		return nil, fmt.Errorf("%w: limit %d", ErrProgramTooLarge, f.options.MaxProgramSize)
	}
	return buf.Bytes(), nil
}
