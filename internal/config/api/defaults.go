package api

import "time"

// API服务默认配置值
const (
	// defaultHTTPEnabled 默认启用HTTP任务接口
	defaultHTTPEnabled = true

	// defaultHTTPHost 默认只监听本机
	defaultHTTPHost = "127.0.0.1"

	// defaultHTTPPort HTTP端口
	defaultHTTPPort = 8088

	// defaultHTTPReadTimeout 读取超时
	defaultHTTPReadTimeout = 30 * time.Second

	// defaultHTTPWriteTimeout 写入超时
	// 证明请求同步返回，需覆盖完整证明时长
	defaultHTTPWriteTimeout = 60 * time.Minute

	// defaultHTTPIdleTimeout 空闲连接超时
	defaultHTTPIdleTimeout = 120 * time.Second

	// defaultMaxBodySize 请求体上限 16MB（协处理器输入可能较大）
	defaultMaxBodySize int64 = 16 << 20
)
