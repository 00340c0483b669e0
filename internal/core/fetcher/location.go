package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/weisyn/coprocessor/pkg/types"
)

// 位置格式
const (
	schemeHTTP  = "http"
	schemeFile  = "file"
	schemeIPFS  = "ipfs"
	schemeLocal = "path"
)

// target 解析后的拉取目标
type target struct {
	scheme string
	// url 为 http 目标的完整地址（ipfs 已替换为网关地址）
	url string
	// path 为本地文件路径
	path string
}

// parseLocation 解析程序位置
//
// 不含 "://" 的位置视为本地路径；其它未知 scheme 返回 UnsupportedScheme。
func parseLocation(location, gateway string, allowLocal bool) (target, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return target{}, types.ErrLocationEmpty
	}

	if !strings.Contains(location, "://") {
		if !allowLocal {
			return target{}, fmt.Errorf("%w: local paths disabled: %s", types.ErrUnsupportedScheme, location)
		}
		return target{scheme: schemeLocal, path: location}, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return target{}, fmt.Errorf("%w: %s: %v", types.ErrUnsupportedScheme, location, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return target{}, fmt.Errorf("%w: missing host: %s", types.ErrUnsupportedScheme, location)
		}
		return target{scheme: schemeHTTP, url: u.String()}, nil
	case schemeFile:
		if !allowLocal {
			return target{}, fmt.Errorf("%w: local paths disabled: %s", types.ErrUnsupportedScheme, location)
		}
		if u.Path == "" {
			return target{}, fmt.Errorf("%w: empty file path: %s", types.ErrUnsupportedScheme, location)
		}
		return target{scheme: schemeFile, path: u.Path}, nil
	case schemeIPFS:
		// ipfs://<cid>[/path]，cid 位于 host
		cid := u.Host
		if cid == "" {
			return target{}, fmt.Errorf("%w: missing cid: %s", types.ErrUnsupportedScheme, location)
		}
		if gateway == "" {
			return target{}, fmt.Errorf("%w: no ipfs gateway configured", types.ErrUnsupportedScheme)
		}
		if !strings.HasSuffix(gateway, "/") {
			gateway += "/"
		}
		return target{scheme: schemeIPFS, url: gateway + cid + u.EscapedPath()}, nil
	default:
		return target{}, fmt.Errorf("%w: %q", types.ErrUnsupportedScheme, u.Scheme)
	}
}
